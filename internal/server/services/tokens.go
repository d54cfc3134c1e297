package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loginlink/loginlink/internal/common"
	"github.com/loginlink/loginlink/internal/dbx"
	"github.com/loginlink/loginlink/internal/logging"
	"github.com/loginlink/loginlink/internal/server/auth"
	"github.com/loginlink/loginlink/internal/server/config"
	"github.com/loginlink/loginlink/internal/server/events"
	"github.com/loginlink/loginlink/internal/server/models"
	"github.com/loginlink/loginlink/internal/server/repositories/repomanager"
)

// TokenService is the boundary of the token lifecycle: issuance (gated by
// Policy), redemption, and the public login-request flow.
type TokenService struct {
	db        *sql.DB
	rm        repomanager.RepositoryManager
	policy    *Policy
	scheduler *Scheduler
	notifier  *events.Notifier
	logger    logging.Logger

	jwtSecret       []byte
	sessionValidity time.Duration
	cleanupDelay    time.Duration
	maxIssueCount   int
	baseURL         string
	loginPath       string
	dashboardPath   string
}

func NewTokenService(
	db *sql.DB,
	rm repomanager.RepositoryManager,
	policy *Policy,
	scheduler *Scheduler,
	notifier *events.Notifier,
	logger logging.Logger,
	cfg *config.Config,
) *TokenService {
	return &TokenService{
		db:              db,
		rm:              rm,
		policy:          policy,
		scheduler:       scheduler,
		notifier:        notifier,
		logger:          logger.With("module", "tokens"),
		jwtSecret:       []byte(cfg.Tokens.SecretKey),
		sessionValidity: cfg.Tokens.SessionValidity,
		cleanupDelay:    cfg.Tokens.CleanupDelay,
		maxIssueCount:   cfg.Tokens.MaxIssueCount,
		baseURL:         strings.TrimRight(cfg.Server.BaseURL, "/"),
		loginPath:       cfg.Server.LoginPath,
		dashboardPath:   cfg.Server.DashboardPath,
	}
}

// Issue mints count one-time login URLs for the user identified by
// targetRef (id, login, or email), subject to the issuance policy.
//
// With delayDelete, previously outstanding tokens stay valid for the
// configured grace window and are removed by a scheduled cleanup job;
// otherwise the stored set is replaced outright.
func (s *TokenService) Issue(ctx context.Context, actor *models.Actor, targetRef string, count int, delayDelete bool) ([]string, error) {
	if count <= 0 || count > s.maxIssueCount {
		return nil, fmt.Errorf("token count must be between 1 and %d: %w", s.maxIssueCount, common.ErrInvalidArgument)
	}

	if actor == nil {
		return nil, common.ErrorUnauthenticated
	}

	target, err := s.resolveUser(ctx, targetRef)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Only callers allowed to know the account roster may learn
			// that the target does not exist.
			if actor.ManageUsers {
				return nil, common.ErrorNotFound
			}
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !s.policy.CanIssue(actor, target) {
		return nil, common.ErrorUnauthorized
	}

	urls, err := s.issueFor(ctx, target, count, delayDelete)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "tokens issued",
		"user_id", target.ID, "count", count, "delay_delete", delayDelete, "actor_id", actor.UserID)

	return urls, nil
}

// Redeem validates a presented (user id, token value) pair and consumes the
// matched token. Every failure surfaces as the one generic ErrInvalidToken:
// the caller cannot tell an unknown user id from a token mismatch.
func (s *TokenService) Redeem(ctx context.Context, userID string, tokenValue string) (*models.Session, error) {
	if userID == "" || tokenValue == "" {
		return nil, common.ErrInvalidToken
	}

	// Fold in deferred cleanup before validating, so a revoked token can
	// never be redeemed just because the background sweep has not ticked.
	if err := s.scheduler.RunDueJobsForUser(ctx, userID, time.Now()); err != nil {
		return nil, common.ErrorInternal
	}

	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Tokens(tx)

		// Serialize against concurrent redemptions and issuance for this
		// user before reading the set.
		if err := repo.LockUser(ctx, user.ID); err != nil {
			return err
		}

		set, err := repo.GetActive(ctx, user.ID)
		if err != nil {
			return err
		}

		matched := ""
		for _, rec := range set {
			if subtle.ConstantTimeCompare([]byte(rec.Value), []byte(tokenValue)) == 1 {
				matched = rec.Value
				break
			}
		}
		if matched == "" {
			return common.ErrInvalidToken
		}

		removed, err := repo.Remove(ctx, user.ID, []string{matched})
		if err != nil {
			return err
		}
		if removed == 0 {
			// A concurrent redemption consumed the value between our read
			// and the delete. Single use means it loses here.
			return common.ErrInvalidToken
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrorInternal
	}

	sessionToken, err := auth.GenerateToken(user.ID, user.ManageUsers, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	s.notifier.TokenRedeemed(ctx, user.ID)
	s.notifier.PostAuthentication(ctx, user.ID)

	s.logger.Info(ctx, "token redeemed", "user_id", user.ID)

	return &models.Session{
		UserID:       user.ID,
		Token:        sessionToken,
		RedirectPath: s.dashboardPath,
	}, nil
}

// RequestLogin serves the public login-request form: it issues a single
// token for the account matching ref (email or login) and reports nothing
// about whether such an account exists. Outstanding tokens keep working for
// the grace window so a retried request does not strand the first email.
func (s *TokenService) RequestLogin(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	user, err := s.resolveUser(ctx, ref)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "login requested for unknown account")
			return nil
		}
		return common.ErrorInternal
	}

	if _, err := s.issueFor(ctx, user, 1, true); err != nil {
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "login requested", "user_id", user.ID)

	return nil
}

// --- helpers below ---

func (s *TokenService) issueFor(ctx context.Context, target *models.User, count int, delayDelete bool) ([]string, error) {
	fresh, err := GenerateTokens(count)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Tokens(tx)

		// Lock before reading so a token redeemed concurrently cannot be
		// read here and written back into the replacement set.
		if err := repo.LockUser(ctx, target.ID); err != nil {
			return err
		}

		if !delayDelete {
			return repo.Replace(ctx, target.ID, fresh)
		}

		old, err := repo.GetActive(ctx, target.ID)
		if err != nil {
			return err
		}

		if len(old) > 0 {
			stale := make([]string, 0, len(old))
			for _, rec := range old {
				stale = append(stale, rec.Value)
			}
			if err := s.scheduler.Schedule(ctx, tx, target.ID, stale, s.cleanupDelay); err != nil {
				return err
			}
		}

		return repo.Replace(ctx, target.ID, append(old, fresh...))
	})
	if err != nil {
		return nil, fmt.Errorf("error storing tokens: %w", err)
	}

	urls := make([]string, 0, len(fresh))
	for _, rec := range fresh {
		urls = append(urls, s.loginURL(target.ID, rec.Value))
	}

	s.notifier.TokensIssued(ctx, target.ID, count)

	return urls, nil
}

func (s *TokenService) loginURL(userID string, value string) string {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("token", value)
	return s.baseURL + s.loginPath + "?" + q.Encode()
}

// resolveUser accepts an id, login name, or email address.
func (s *TokenService) resolveUser(ctx context.Context, ref string) (*models.User, error) {
	repo := s.rm.Users(s.db)

	if uuid.Validate(ref) == nil {
		user, err := repo.GetByID(ctx, ref)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
	}

	user, err := repo.GetByLogin(ctx, ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	user, err = repo.GetByEmail(ctx, ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return nil, common.ErrorNotFound
}
