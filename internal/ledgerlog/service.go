// Package ledgerlog keeps a git-backed audit trail of issued certificates.
// Every ledger append becomes one commit, so the issuance history can be
// inspected with ordinary git tooling.
package ledgerlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"skillforge/api/internal/progress"
)

const (
	authorName  = "SkillForge Ledger"
	authorEmail = "ledger@skillforge.local"
	entriesDir  = "certificates"
)

type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Service {
	return &Service{dir: dir}
}

// Record commits the ledger entry as certificates/<code>.json. Re-recording
// an already committed code overwrites the file; an identical payload makes
// the commit empty and is skipped.
func (s *Service) Record(ctx context.Context, entry progress.CertificateLedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.ensureRepo()
	if err != nil {
		return err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}
	relPath := filepath.Join(entriesDir, entry.VerificationCode+".json")
	fullPath := filepath.Join(s.dir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create entries dir: %w", err)
	}
	if err := os.WriteFile(fullPath, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}
	if _, err := worktree.Add(relPath); err != nil {
		return fmt.Errorf("git add ledger entry: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	message := fmt.Sprintf("Issue certificate %s (%s, %s)", entry.VerificationCode, entry.CourseID, entry.Tier)
	if _, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	}); err != nil {
		return fmt.Errorf("commit ledger entry: %w", err)
	}
	return nil
}

// ReadEntry loads a committed ledger entry by verification code.
func (s *Service) ReadEntry(code string) (*progress.CertificateLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commitObj, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("load HEAD commit: %w", err)
	}
	file, err := commitObj.File(entriesDir + "/" + code + ".json")
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", code, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open entry reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read entry bytes: %w", err)
	}
	var entry progress.CertificateLedgerEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &entry, nil
}

// History returns the newest commits first, up to limit (0 means all).
func (s *Service) History(limit int) ([]CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return []CommitInfo{}, nil
		}
		return nil, fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []CommitInfo{}, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, CommitInfo{
			Hash:      commitObj.Hash.String()[:7],
			Message:   commitObj.Message,
			Author:    commitObj.Author.Name,
			CreatedAt: commitObj.Author.When,
		})
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func (s *Service) ensureRepo() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(s.dir, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

var _ progress.LedgerMirror = (*Service)(nil)
