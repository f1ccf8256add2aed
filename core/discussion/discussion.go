// Package discussion holds the per-project message board shared by a project's advisors and students.
package discussion

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/user"
)

var ErrEmptyMessage = errors.New("message cannot be empty")

type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// View is a Message along with its sender.
type View struct {
	Message
	Sender user.Summary `json:"sender"`
}

type NewMessage struct {
	Text string `json:"message"`
}

func (nm *NewMessage) Validate() error {
	nm.Text = core.CleanString(nm.Text)
	if nm.Text == "" {
		return core.NewValidationError(ErrEmptyMessage)
	}
	return nil
}

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message) (Message, error)
		// QueryMessages returns the messages of a project, oldest first.
		QueryMessages(ctx context.Context, projectID string) ([]Message, error)
	}

	Service interface {
		List(ctx context.Context, actor user.User, projectID string) ([]View, error)
		Post(ctx context.Context, actor user.User, projectID string, nm NewMessage) (View, error)
	}

	service struct {
		repo    Repository
		projSvc project.Service
		usrSvc  user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, projSvc project.Service, usrSvc user.Service) Service {
	return &service{repo: repo, projSvc: projSvc, usrSvc: usrSvc}
}

func (svc *service) List(ctx context.Context, actor user.User, projectID string) ([]View, error) {
	if _, err := svc.projSvc.GetForMember(ctx, actor, projectID); err != nil {
		return nil, err
	}
	msgs, err := svc.repo.QueryMessages(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	senders, err := svc.usrSvc.GetMany(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "finding senders")
	}
	byID := make(map[string]user.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	views := make([]View, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, View{Message: m, Sender: senderSummary(byID[m.SenderID], m.SenderID)})
	}
	return views, nil
}

func (svc *service) Post(ctx context.Context, actor user.User, projectID string, nm NewMessage) (View, error) {
	if _, err := svc.projSvc.GetForMember(ctx, actor, projectID); err != nil {
		return View{}, err
	}
	if err := nm.Validate(); err != nil {
		return View{}, err
	}

	now := time.Now().UTC()
	m, err := svc.repo.CreateMessage(ctx, Message{
		ProjectID: projectID,
		SenderID:  actor.ID,
		Text:      nm.Text,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return View{}, errors.Wrap(err, "creating message")
	}
	return View{Message: m, Sender: senderSummary(actor, actor.ID)}, nil
}

func senderSummary(u user.User, id string) user.Summary {
	if u.ID == "" {
		return user.Summary{ID: id}
	}
	return user.Summary{ID: u.ID, Name: u.Name, Role: u.Role}
}
