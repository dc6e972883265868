package random

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	mrand "math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/office-pools/internal/platform/logging"
)

var (
	ErrInvalidLength = errors.New("invalid length")
	ErrEmptyInput    = errors.New("empty input")
)

const (
	InviteCodeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultInviteCodeLength = 6
	MinInviteCodeLength     = 4
	MaxInviteCodeLength     = 10
	MinStripCount           = 1
	MaxStripCount           = 20
	DigitCount              = 10
)

// Source yields uniformly distributed integers in [0, n).
type Source interface {
	IntN(n int) (int, error)
}

type cryptoSource struct {
	reader io.Reader
}

// NewCryptoSource draws from r, or crypto/rand when r is nil.
func NewCryptoSource(r io.Reader) Source {
	if r == nil {
		r = crand.Reader
	}
	return cryptoSource{reader: r}
}

func (s cryptoSource) IntN(n int) (int, error) {
	v, err := crand.Int(s.reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read crypto random: %w", err)
	}
	return int(v.Int64()), nil
}

// pseudoSource is the weaker math/rand fallback. It is never used while the crypto source works.
type pseudoSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

func newPseudoSource(seed uint64) *pseudoSource {
	return &pseudoSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pseudoSource) IntN(n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n), nil
}

// Assigner produces invite codes, permutations and digit draws for pools.
type Assigner struct {
	primary      Source
	fallback     Source
	usedFallback atomic.Bool
	logger       *logging.Logger
}

func NewAssigner(logger *logging.Logger) *Assigner {
	return NewAssignerWithSource(NewCryptoSource(nil), logger)
}

// NewAssignerWithSource uses src as the primary source; a pseudo-random fallback is kept for
// the case where src fails.
func NewAssignerWithSource(src Source, logger *logging.Logger) *Assigner {
	if logger == nil {
		logger = logging.Default()
	}
	if src == nil {
		src = NewCryptoSource(nil)
	}
	return &Assigner{
		primary:  src,
		fallback: newPseudoSource(uint64(time.Now().UnixNano())),
		logger:   logger,
	}
}

// Fallback reports whether any draw so far came from the pseudo-random fallback.
func (a *Assigner) Fallback() bool {
	return a.usedFallback.Load()
}

func (a *Assigner) intN(n int) int {
	v, err := a.primary.IntN(n)
	if err == nil && v >= 0 && v < n {
		return v
	}
	if a.usedFallback.CompareAndSwap(false, true) {
		a.logger.Warn("crypto random source unavailable, using pseudo-random fallback", "error", err)
	}
	v, _ = a.fallback.IntN(n)
	return v
}

// GenerateInviteCode draws length characters independently from alphabet. An empty alphabet
// means InviteCodeAlphabet. Uniqueness is the caller's concern.
func (a *Assigner) GenerateInviteCode(length int, alphabet string) (string, error) {
	if length < MinInviteCodeLength || length > MaxInviteCodeLength {
		return "", fmt.Errorf("%w: invite code length must be in [%d,%d], got %d", ErrInvalidLength, MinInviteCodeLength, MaxInviteCodeLength, length)
	}
	if alphabet == "" {
		alphabet = InviteCodeAlphabet
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[a.intN(len(alphabet))]
	}
	return string(out), nil
}

// Shuffle returns a uniformly random permutation of seq without touching seq.
func Shuffle[T any](a *Assigner, seq []T) ([]T, error) {
	if len(seq) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([]T, len(seq))
	copy(out, seq)
	for i := len(out) - 1; i > 0; i-- {
		j := a.intN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// AssignGridDigits returns two independent permutations of 0..9 for the row and column axes.
func (a *Assigner) AssignGridDigits() ([DigitCount]int, [DigitCount]int) {
	var rows, cols [DigitCount]int
	copy(rows[:], a.digitPermutation())
	copy(cols[:], a.digitPermutation())
	return rows, cols
}

func (a *Assigner) digitPermutation() []int {
	digits := make([]int, DigitCount)
	for i := range digits {
		digits[i] = i
	}
	out, _ := Shuffle(a, digits)
	return out
}

// AssignStripNumbers draws one digit per strip with repetition.
func (a *Assigner) AssignStripNumbers(count int) ([]int, error) {
	if count < MinStripCount || count > MaxStripCount {
		return nil, fmt.Errorf("%w: strip count must be in [%d,%d], got %d", ErrInvalidLength, MinStripCount, MaxStripCount, count)
	}

	out := make([]int, count)
	for i := range out {
		out[i] = a.intN(DigitCount)
	}
	return out, nil
}
