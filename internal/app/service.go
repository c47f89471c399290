package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skillforge/api/internal/artifacts"
	"skillforge/api/internal/auth"
	"skillforge/api/internal/authpw"
	"skillforge/api/internal/catalog"
	"skillforge/api/internal/config"
	"skillforge/api/internal/export"
	"skillforge/api/internal/ledgerlog"
	"skillforge/api/internal/progress"
	"skillforge/api/internal/search"
	"skillforge/api/internal/util"
)

// Session is the authenticated view of a request. A zero Session is the
// anonymous learner.
type Session struct {
	Email string
	Name  string
	Plan  string
}

// Service wires the domain services together for the HTTP layer.
type Service struct {
	cfg       config.Config
	progress  *progress.Service
	catalog   *catalog.Catalog
	accounts  *authpw.Service
	searcher  *search.Service
	exporter  *export.Service
	auditLog  *ledgerlog.Service
	artifacts *artifacts.Service
}

func New(cfg config.Config, prog *progress.Service, cat *catalog.Catalog, accounts *authpw.Service, searcher *search.Service, exporter *export.Service) *Service {
	return &Service{
		cfg:      cfg,
		progress: prog,
		catalog:  cat,
		accounts: accounts,
		searcher: searcher,
		exporter: exporter,
	}
}

// EnableAuditLog attaches the git-backed issuance history.
func (s *Service) EnableAuditLog(auditLog *ledgerlog.Service) {
	s.auditLog = auditLog
}

// EnableArtifacts attaches object storage for studio artifact uploads.
func (s *Service) EnableArtifacts(store *artifacts.Service) {
	s.artifacts = store
}

func (s *Service) Progress() *progress.Service { return s.progress }
func (s *Service) Catalog() *catalog.Catalog   { return s.catalog }
func (s *Service) Searcher() *search.Service   { return s.searcher }
func (s *Service) AuditLog() *ledgerlog.Service {
	return s.auditLog
}

func (s *Service) Ping(ctx context.Context) error {
	return s.progress.Ping(ctx)
}

// Bootstrap reindexes the search facade from the persisted ledger. Safe to
// call on every start.
func (s *Service) Bootstrap(ctx context.Context) error {
	s.searcher.ReindexAll(ctx)
	return nil
}

type TokenResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Plan      string `json:"plan"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (TokenResponse, error) {
	account, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{Email: email, Password: password, FullName: fullName})
	if err != nil {
		if errors.Is(err, authpw.ErrEmailTaken) {
			return TokenResponse{}, domainError(http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
		}
		return TokenResponse{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return s.tokenFor(account)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (TokenResponse, error) {
	account, err := s.accounts.SignIn(ctx, authpw.SignInRequest{Email: email, Password: password})
	if err != nil {
		return TokenResponse{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	return s.tokenFor(account)
}

func (s *Service) tokenFor(account *authpw.Account) (TokenResponse, error) {
	expiresAt := time.Now().Add(s.cfg.AccessTTL).Unix()
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Email: account.Email,
		Name:  account.FullName,
		Plan:  account.Subscription,
		Exp:   expiresAt,
	})
	if err != nil {
		return TokenResponse{}, domainError(http.StatusInternalServerError, "TOKEN_FAILED", "Failed to issue token", nil)
	}
	return TokenResponse{
		Token:     token,
		Email:     account.Email,
		Name:      account.FullName,
		Plan:      account.Subscription,
		ExpiresAt: expiresAt,
	}, nil
}

// SessionFromToken validates a bearer token. The subscription plan is
// re-read from the account record so a mid-session upgrade or trial expiry
// takes effect immediately.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	session := Session{Email: claims.Email, Name: claims.Name, Plan: claims.Plan}
	if account, err := s.accounts.Get(ctx, claims.Email); err == nil {
		session.Name = account.FullName
		session.Plan = account.Subscription
	}
	return session, nil
}

// Actor resolves the progress actor for a session; a zero session maps to
// the anonymous account.
func (s *Service) Actor(session Session) progress.Actor {
	if session.Email == "" {
		return progress.Actor{Key: progress.AnonymousKey}
	}
	return progress.Actor{
		Key:          session.Email,
		Name:         session.Name,
		Email:        session.Email,
		Subscription: session.Plan,
	}
}

// ExportCertificate renders one of the actor's certificates for download.
func (s *Service) ExportCertificate(ctx context.Context, actor progress.Actor, id string, format export.Format) (*export.Result, error) {
	record := s.progress.CertificateByID(ctx, actor.Key, id)
	if record == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Certificate not found", nil)
	}
	result, err := s.exporter.Export(ctx, *record, format)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this host", nil)
		}
		return nil, err
	}
	return result, nil
}

// VerifyCode resolves a certificate from the public cross-account ledger.
func (s *Service) VerifyCode(ctx context.Context, code string) (*progress.CertificateLedgerEntry, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_CODE", "Verification code required", nil)
	}
	entry := s.progress.VerifyByCode(ctx, code)
	if entry == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "No certificate matches that code", nil)
	}
	return entry, nil
}

// UploadArtifact stores an uploaded file in object storage and attaches it
// to the studio session as an artifact with a signed download URL.
func (s *Service) UploadArtifact(ctx context.Context, actor progress.Actor, sessionID, filename, contentType string, reader io.Reader, size int64) (*progress.StudioSessionRecord, error) {
	if s.artifacts == nil {
		return nil, domainError(http.StatusNotFound, "UPLOADS_DISABLED", "Artifact uploads are not enabled", nil)
	}
	if s.progress.StudioSessionByID(ctx, actor.Key, sessionID) == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
	}
	url, err := s.artifacts.Upload(ctx, actor.Key, sessionID, util.NewID("art"), filename, contentType, reader, size)
	if err != nil {
		return nil, fmt.Errorf("upload artifact: %w", err)
	}
	session := s.progress.AddArtifact(ctx, actor.Key, sessionID, progress.AddArtifactInput{
		Title: filename,
		Type:  progress.ArtifactGeneric,
		Owner: actor.Name,
		URL:   url,
	})
	if session == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
	}
	return session, nil
}

// AuditHistory returns the git-backed issuance trail.
func (s *Service) AuditHistory(limit int) ([]ledgerlog.CommitInfo, error) {
	if s.auditLog == nil {
		return nil, domainError(http.StatusNotFound, "AUDIT_DISABLED", "Ledger audit log is not enabled", nil)
	}
	return s.auditLog.History(limit)
}
