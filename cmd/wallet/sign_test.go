package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInputsToSign(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		inputs, err := parseInputsToSign([]string{
			"bc1qpayment:0", "bc1pordinals:1, 2",
		})
		require.NoError(t, err)
		require.Equal(t, []inputToSign{
			{"bc1qpayment", []int{0}},
			{"bc1pordinals", []int{1, 2}},
		}, inputs)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, v := range []string{"bc1qpayment", ":0", "bc1qpayment:", "bc1qpayment:a", "bc1qpayment:-1"} {
			_, err := parseInputsToSign([]string{v})
			require.Error(t, err, v)
		}
	})
}
