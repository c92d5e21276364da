package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// hashingResult holds the outcome of a hashing job.
type hashingResult struct {
	hash string
	err  error
}

// hashingJob represents a password to be hashed or checked.
type hashingJob struct {
	password string
	hash     string // set for comparisons
	result   chan<- hashingResult
}

// Hasher manages a pool of workers for CPU-intensive bcrypt work, bounding how many
// hashes run at once regardless of request concurrency.
type Hasher struct {
	jobs chan hashingJob
	cost int
}

var _ PasswordHasher = (*Hasher)(nil)

// NewHasher creates and starts a new Hasher service.
func NewHasher(numWorkers int, cost int) *Hasher {
	if numWorkers < 1 {
		numWorkers = 1
	}
	h := &Hasher{
		jobs: make(chan hashingJob),
		cost: cost,
	}
	for i := 0; i < numWorkers; i++ {
		go h.worker()
	}
	return h
}

// worker is a background goroutine that processes hashing jobs.
func (h *Hasher) worker() {
	for job := range h.jobs {
		if job.hash != "" {
			err := bcrypt.CompareHashAndPassword([]byte(job.hash), []byte(job.password))
			job.result <- hashingResult{err: err}
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(job.password), h.cost)
		job.result <- hashingResult{hash: string(hash), err: err}
	}
}

func (h *Hasher) submit(job hashingJob) hashingResult {
	result := make(chan hashingResult, 1)
	job.result = result
	h.jobs <- job
	return <-result
}

// Hash sends a password to the worker pool and waits for the result.
func (h *Hasher) Hash(password string) (string, error) {
	res := h.submit(hashingJob{password: password})
	return res.hash, res.err
}

// Compare checks password against a bcrypt hash on the worker pool.
func (h *Hasher) Compare(hash, password string) error {
	if hash == "" || IsUnusablePassword(hash) {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	res := h.submit(hashingJob{password: password, hash: hash})
	if errors.Is(res.err, bcrypt.ErrHashTooShort) {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return res.err
}

// Close stops the workers. The Hasher must not be used afterwards.
func (h *Hasher) Close() {
	close(h.jobs)
}
