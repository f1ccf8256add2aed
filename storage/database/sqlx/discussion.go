package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fypcompass/compass/core/discussion"
)

const messageColumns = `id, project_id, sender_id, text, created_at, updated_at`

type messageRow struct {
	ID        string    `db:"id"`
	ProjectID string    `db:"project_id"`
	SenderID  string    `db:"sender_id"`
	Text      string    `db:"text"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

type discussionRepository struct {
	db *sqlx.DB
}

var _ discussion.Repository = (*discussionRepository)(nil)

func NewDiscussionRepository(db *sqlx.DB) discussion.Repository {
	return &discussionRepository{db: db}
}

func (repo *discussionRepository) CreateMessage(ctx context.Context, m discussion.Message) (discussion.Message, error) {
	m.ID = uuid.New().String()
	row := messageRow{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		CreatedAt: null.TimeFrom(m.CreatedAt.UTC()),
		UpdatedAt: null.TimeFrom(m.UpdatedAt.UTC()),
	}
	q := `INSERT INTO message (` + messageColumns + `) VALUES (:id, :project_id, :sender_id, :text, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return discussion.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo *discussionRepository) QueryMessages(ctx context.Context, projectID string) ([]discussion.Message, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return []discussion.Message{}, nil
	}
	var rows []messageRow
	q := `SELECT ` + messageColumns + ` FROM message WHERE project_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q, projectID); err != nil {
		return nil, errors.Wrap(err, "selecting messages")
	}
	msgs := make([]discussion.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, discussion.Message{
			ID:        r.ID,
			ProjectID: r.ProjectID,
			SenderID:  r.SenderID,
			Text:      r.Text,
			CreatedAt: r.CreatedAt.Time.UTC(),
			UpdatedAt: r.UpdatedAt.Time.UTC(),
		})
	}
	return msgs, nil
}
