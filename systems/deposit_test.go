package systems

import (
	"sync"
	"testing"
)

func TestDepositAdditiveConcurrent(t *testing.T) {
	buf := NewDepositBuffer(4, 4, 4)
	const workers, each = 8, 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				buf.Deposit(5, 0, 1, BlendAdditive)
			}
		}()
	}
	wg.Wait()

	if !buf.Touched(5) {
		t.Fatal("cell 5 should be touched")
	}
	if buf.Touched(4) {
		t.Error("cell 4 should not be touched")
	}
	if got := buf.Take(5, 0); got != workers*each {
		t.Errorf("accumulated %f, want %d", got, workers*each)
	}
	if got := buf.Take(5, 0); got != 0 {
		t.Errorf("Take should zero the cell, got %f", got)
	}
}

func TestDepositLastWrite(t *testing.T) {
	buf := NewDepositBuffer(2, 2, 4)
	buf.Deposit(3, 1, 2, BlendLastWrite)
	buf.Deposit(3, 1, 2, BlendLastWrite)

	if got := buf.Take(3, 1); got != 2 {
		t.Errorf("last write = %f, want 2", got)
	}
	buf.Untouch(3)
	if buf.Touched(3) {
		t.Error("Untouch should clear the mark")
	}
	if buf.Cells() != 4 {
		t.Errorf("Cells = %d, want 4", buf.Cells())
	}
}
