package testexams

import (
	"errors"
	"fmt"

	"github.com/okian/examboard/internal/domain/types"
)

// ErrMismatch reports a leaderboard that disagrees with the expected one.
var ErrMismatch = errors.New("leaderboard mismatch")

// VerifyOrder checks that ranks run 1..n and scores never increase.
func VerifyOrder(board []types.Entry) error {
	for i, e := range board {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrMismatch, i, e.Rank)
		}
		if i > 0 && e.Score > board[i-1].Score {
			return fmt.Errorf("%w: entry %d scores %.3f above entry %d (%.3f)",
				ErrMismatch, i, e.Score, i-1, board[i-1].Score)
		}
	}
	return nil
}

// VerifyAgainst compares a served leaderboard with one computed locally.
// Only the first len(got) entries are compared so a limited fetch passes.
func VerifyAgainst(want, got []types.Entry) error {
	if err := VerifyOrder(got); err != nil {
		return err
	}
	if len(got) > len(want) {
		return fmt.Errorf("%w: served %d entries, expected at most %d", ErrMismatch, len(got), len(want))
	}
	for i := range got {
		if got[i].Name != want[i].Name {
			return fmt.Errorf("%w: rank %d is %q, expected %q", ErrMismatch, i+1, got[i].Name, want[i].Name)
		}
		if got[i].Score != want[i].Score {
			return fmt.Errorf("%w: %q scores %.3f, expected %.3f", ErrMismatch, got[i].Name, got[i].Score, want[i].Score)
		}
	}
	return nil
}
