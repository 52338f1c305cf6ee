package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/luisarreguin/delifast-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	DB() *gorm.DB
}

// SQLStore implements Store on top of the documents table, using one gorm
// transaction per atomic batch.
type SQLStore struct {
	client txRunner
	now    func() time.Time
}

// NewSQLStore builds the production store over the shared DB client.
func NewSQLStore(client txRunner) (*SQLStore, error) {
	if client == nil {
		return nil, errors.New("db client required")
	}
	return &SQLStore{client: client, now: time.Now}, nil
}

// WithClock overrides the commit clock, for tests.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *SQLStore) AllocateID(ctx context.Context, collection string) (string, error) {
	_ = collection
	return uuid.NewString(), nil
}

func (s *SQLStore) ServerTimestamp() any {
	return Timestamp{}
}

func (s *SQLStore) AtomicWrite(ctx context.Context, ops []WriteOp, preconds ...Precondition) error {
	if len(ops) == 0 {
		return nil
	}
	commitAt := s.now()
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, pre := range preconds {
			raw, err := readRow(ctx, tx, pre.Path, true)
			if err != nil {
				return err
			}
			if err := checkPrecondition(raw, pre); err != nil {
				return err
			}
		}

		for _, op := range ops {
			if op.Delete {
				if err := tx.WithContext(ctx).
					Where("path = ?", op.Path).
					Delete(&models.Document{}).Error; err != nil {
					return err
				}
				continue
			}
			value, err := encodeValue(op.Value, commitAt)
			if err != nil {
				return err
			}
			row := models.Document{Path: op.Path, Value: value, UpdatedAt: commitAt}
			if err := tx.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "path"}},
					DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
				}).
				Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) Read(ctx context.Context, path string, dest any) (bool, error) {
	raw, err := readRow(ctx, s.client.DB(), path, false)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	var rows []models.Document
	err := s.client.DB().WithContext(ctx).
		Where("path LIKE ?", escapeLike(prefix)+"%").
		Order("path ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Path] = row.Value
	}
	return out, nil
}

func readRow(ctx context.Context, tx *gorm.DB, path string, forUpdate bool) (json.RawMessage, error) {
	q := tx.WithContext(ctx)
	// sqlite has no row locks; the whole tx serializes there anyway.
	if forUpdate && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.Document
	err := q.Where("path = ?", path).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
