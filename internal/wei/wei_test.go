package wei

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "0.1", want: "100000000000000000"},
		{input: "0.15", want: "150000000000000000"},
		{input: "1", want: "1000000000000000000"},
		{input: "0", want: "0"},
		{input: "0.000000000000000001", want: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEther(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseEther_Rejects(t *testing.T) {
	for _, input := range []string{"", "abc", "-1", "0.0000000000000000001"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseEther(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAmount))
		})
	}
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0.1", FormatEther(big.NewInt(100000000000000000)))
	assert.Equal(t, "0.14625", FormatEther(Ether("0.14625")))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
}
