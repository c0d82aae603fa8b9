package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/atelier-erp/atelier-erp/internal/testing/guard"
)

func TestMain(m *testing.M) {
	RefreshTestMode()
	os.Exit(m.Run())
}

func TestGuardEnablesTestMode(t *testing.T) {
	require.True(t, InTestMode())
}
