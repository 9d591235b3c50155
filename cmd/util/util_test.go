package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptYesOrNo(t *testing.T) {
	tests := []struct {
		name       string
		stdin      string
		defaultYes bool
		expAnswer  bool
		expError   bool
	}{
		{
			name:       "Empty answer takes the default",
			stdin:      "\n",
			defaultYes: true,
			expAnswer:  true,
		},
		{
			name:       "Empty answer takes a no default",
			stdin:      "\n",
			defaultYes: false,
			expAnswer:  false,
		},
		{
			name:      "Yes",
			stdin:     "y\n",
			expAnswer: true,
		},
		{
			name:      "Spelled out",
			stdin:     "YES\n",
			expAnswer: true,
		},
		{
			name:       "No",
			stdin:      "n\n",
			defaultYes: true,
			expAnswer:  false,
		},
		{
			name:      "Invalid answer then valid",
			stdin:     "maybe\ny\n",
			expAnswer: true,
		},
		{
			name:     "Too many invalid answers",
			stdin:    "a\nb\nc\n",
			expError: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			promptIn = strings.NewReader(test.stdin)
			answer, err := PromptYesOrNo("Proceed?", test.defaultYes)
			if test.expError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expAnswer, answer)
		})
	}
}

func TestPromptIndex(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		max      int
		expIndex int
		expOK    bool
	}{
		{
			name:     "Valid choice",
			stdin:    "2\n",
			max:      3,
			expIndex: 2,
			expOK:    true,
		},
		{
			name:  "Empty answer cancels",
			stdin: "\n",
			max:   3,
			expOK: false,
		},
		{
			name:     "Out of range then valid",
			stdin:    "4\n1\n",
			max:      3,
			expIndex: 1,
			expOK:    true,
		},
		{
			name:  "Too many invalid answers",
			stdin: "0\nfoo\n9\n",
			max:   3,
			expOK: false,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			promptIn = strings.NewReader(test.stdin)
			index, ok := PromptIndex("Select device", test.max)
			assert.Equal(t, test.expOK, ok)
			if test.expOK {
				assert.Equal(t, test.expIndex, index)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		exp   string
	}{
		{bytes: 0, exp: "0 B"},
		{bytes: 512, exp: "512 B"},
		{bytes: 1024, exp: "1.0 KiB"},
		{bytes: 1536, exp: "1.5 KiB"},
		{bytes: 5 * 1024 * 1024, exp: "5.0 MiB"},
		{bytes: 3 * 1024 * 1024 * 1024, exp: "3.0 GiB"},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, FormatBytes(test.bytes))
	}
}
