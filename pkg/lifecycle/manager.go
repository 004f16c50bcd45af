// Package lifecycle applies the state transitions of cases, documents and
// petitions and keeps the chat-side case summaries in step with them.
//
// Every operation commits its writes in a single transaction. Chat effects
// (announcements, summary edits, DMs) run after the commit, are logged on
// failure and never change the operation's result.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/procuraduria/docket/pkg/authz"
	"github.com/procuraduria/docket/pkg/codes"
	"github.com/procuraduria/docket/pkg/errs"
	"github.com/procuraduria/docket/pkg/presenter"
)

// maxCodeRetries bounds how often a transaction that minted a code is
// replayed after losing a race.
const maxCodeRetries = 4

// Config holds the chat targets and role policy of a Manager.
type Config struct {
	RecordsChannelID   string
	PetitionsChannelID string

	// StaffMention is sent as content with petition announcements.
	StaffMention string

	Policy authz.Policy
}

// Manager is the record lifecycle manager.
type Manager struct {
	db        *gorm.DB
	presenter presenter.Presenter
	config    Config
	codes     *codes.Generator
	logger    hclog.Logger
	now       func() time.Time

	// newBackOff is replaced in tests.
	newBackOff func() backoff.BackOff
}

// NewManager returns a Manager using db for persistence and p for chat
// effects. A nil presenter logs announcements instead.
func NewManager(db *gorm.DB, p presenter.Presenter, cfg Config, logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if p == nil {
		p = presenter.NewLog(logger.Named("presenter"))
	}
	if cfg.StaffMention == "" && cfg.Policy.StaffRoleID != "" {
		cfg.StaffMention = "<@&" + cfg.Policy.StaffRoleID + ">"
	}

	return &Manager{
		db:        db,
		presenter: p,
		config:    cfg,
		codes:     codes.NewGenerator(),
		logger:    logger,
		now:       time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 25 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
	}
}

// WithClock replaces the clock used for timestamps and code years.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	m.codes = m.codes.WithClock(now)
	return m
}

func (m *Manager) requireStaff(caller authz.Caller, op string) error {
	if !m.config.Policy.IsStaff(caller) {
		return errs.PermissionDenied(op, "caller %s is not staff", callerName(caller))
	}
	return nil
}

// transaction runs fn in one transaction.
func (m *Manager) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

// mintTransaction runs fn, which reserves a code and inserts the record
// carrying it, replaying the whole transaction when another writer won the
// race. Duplicates are only replayed when retryDuplicates is set, i.e. when
// the code was generated rather than supplied.
func (m *Manager) mintTransaction(ctx context.Context, op string, retryDuplicates bool, fn func(tx *gorm.DB) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), maxCodeRetries), ctx)

	operation := func() error {
		err := m.transaction(ctx, fn)
		if err == nil {
			return nil
		}
		if errs.IsBusy(err) || (retryDuplicates && errors.Is(err, errs.ErrDuplicate)) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		m.logger.Warn("code reservation lost a race, retrying", "op", op, "wait", wait, "error", err)
	}

	return backoff.RetryNotify(operation, policy, notify)
}

// announce posts a to channelID. Failures are logged and swallowed.
func (m *Manager) announce(ctx context.Context, channelID string, a presenter.Announcement) presenter.MessageRef {
	if channelID == "" {
		m.logger.Debug("no channel configured, skipping announcement", "title", a.Title)
		return presenter.MessageRef{}
	}
	ref, err := m.presenter.Announce(ctx, channelID, a)
	if err != nil {
		m.logger.Warn("failed to publish announcement", "channel", channelID, "title", a.Title, "error", err)
		return presenter.MessageRef{}
	}
	return ref
}

func callerName(c authz.Caller) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}
