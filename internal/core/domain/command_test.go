package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFor(t *testing.T) {
	for _, name := range []string{COMMAND_POLL, COMMAND_REDISCOVER} {
		cmd, err := CommandFor(name)
		require.NoError(t, err)
		assert.Equal(t, name, cmd.BridgeCommand())
	}

	_, ok := must(CommandFor(COMMAND_POLL)).(PollCommand)
	assert.True(t, ok)
	_, ok = must(CommandFor(COMMAND_REDISCOVER)).(RediscoverRequest)
	assert.True(t, ok)

	_, err := CommandFor("reboot")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func must(cmd BridgeCommand, err error) BridgeCommand {
	if err != nil {
		panic(err)
	}
	return cmd
}
