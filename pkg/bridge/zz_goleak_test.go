// ABOUTME: Goroutine leak check for the package tests
// ABOUTME: Fails the run if any test leaves a goroutine behind
package bridge

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
