package services

import (
	"context"
	"net/mail"

	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

type UserInput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UserPatch struct {
	Name  curriculum.Optional[string] `json:"name"`
	Email curriculum.Optional[string] `json:"email"`
	Role  curriculum.Optional[string] `json:"role"`
}

type UserService interface {
	Create(ctx context.Context, in UserInput) (curriculum.Aggregate, error)
	Update(ctx context.Context, id string, p UserPatch) (curriculum.Aggregate, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (curriculum.Aggregate, error)
	List(ctx context.Context) ([]curriculum.Node, error)
}

type userService struct {
	w   AggregateWriter
	r   AggregateReader
	log *logger.Logger
}

func NewUserService(w AggregateWriter, r AggregateReader, log *logger.Logger) UserService {
	return &userService{w: w, r: r, log: log.With("service", "UserService")}
}

func validEmail(op, email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domainagg.BadRequest(op, "invalid email")
	}
	return nil
}

func (s *userService) Create(ctx context.Context, in UserInput) (curriculum.Aggregate, error) {
	const op = "user.create"
	if err := requireText(op, "name", in.Name); err != nil {
		return curriculum.Aggregate{}, err
	}
	if err := validEmail(op, in.Email); err != nil {
		return curriculum.Aggregate{}, err
	}
	return s.w.Create(ctx, curriculum.CreateSpec{
		Op: op,
		Root: curriculum.NodeSpec{
			Kind:       curriculum.KindUser,
			ID:         newID(in.ID),
			Attributes: attrs("name", in.Name, "email", in.Email, "role", in.Role),
		},
		ActorID: actor(ctx),
	})
}

func (s *userService) Update(ctx context.Context, id string, p UserPatch) (curriculum.Aggregate, error) {
	const op = "user.update"
	if p.Name.Present && p.Name.Cleared() {
		return curriculum.Aggregate{}, domainagg.BadRequest(op, "name cannot be removed", id)
	}
	if p.Email.Present && !p.Email.Cleared() {
		if err := validEmail(op, p.Email.Value); err != nil {
			return curriculum.Aggregate{}, err
		}
	}
	patch := map[string]any{}
	curriculum.PutAttr(patch, "name", p.Name)
	curriculum.PutAttr(patch, "email", p.Email)
	curriculum.PutAttr(patch, "role", p.Role)
	return s.w.Update(ctx, curriculum.UpdateSpec{Op: op, Kind: curriculum.KindUser, ID: id, Patch: patch, ActorID: actor(ctx)})
}

// Delete detaches the user; authored content and learning paths stay.
func (s *userService) Delete(ctx context.Context, id string) error {
	return s.w.Delete(ctx, curriculum.DeleteSpec{Op: "user.delete", Kind: curriculum.KindUser, ID: id, ActorID: actor(ctx)})
}

func (s *userService) Get(ctx context.Context, id string) (curriculum.Aggregate, error) {
	return s.r.Get(ctx, curriculum.KindUser, id)
}

func (s *userService) List(ctx context.Context) ([]curriculum.Node, error) {
	return s.r.List(ctx, curriculum.KindUser)
}
