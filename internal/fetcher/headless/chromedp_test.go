package headless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewChromedpDefaults(t *testing.T) {
	f, err := NewChromedp(Config{Headless: true})
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, 30*time.Second, f.cfg.NavigationTimeout)
	require.Equal(t, 2*time.Second, f.cfg.SettleWait)
}

func TestNewChromedpRejectsNegativeSettle(t *testing.T) {
	_, err := NewChromedp(Config{SettleWait: -time.Second})
	require.Error(t, err)
}
