package rabbitmq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestIsClosedErr(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "closed channel sentinel",
			err:      amqp.ErrClosed,
			expected: true,
		},
		{
			name:     "wrapped closed channel sentinel",
			err:      fmt.Errorf("publish: %w", amqp.ErrClosed),
			expected: true,
		},
		{
			name:     "channel error code",
			err:      &amqp.Error{Code: amqp.ChannelError, Reason: "unexpected method"},
			expected: true,
		},
		{
			name:     "connection forced code",
			err:      &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker restart"},
			expected: true,
		},
		{
			name:     "frame error code",
			err:      &amqp.Error{Code: amqp.FrameError, Reason: "bad frame"},
			expected: true,
		},
		{
			name:     "application error",
			err:      errors.New("boom"),
			expected: false,
		},
		{
			name:     "recoverable amqp error",
			err:      &amqp.Error{Code: amqp.NotFound, Reason: "no queue"},
			expected: false,
		},
		{
			name:     "nil",
			err:      nil,
			expected: false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, IsClosedErr(testCase.err))
		})
	}
}
