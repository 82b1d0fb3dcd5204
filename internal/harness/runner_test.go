package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memdev/internal/device"
)

func int64p(v int64) *int64 { return &v }
func strp(v string) *string { return &v }

func smallDevices() *Devices {
	return &Devices{Quantum: 4, Qset: 2, Count: 1}
}

func TestRun_TraceAndExpectations(t *testing.T) {
	s := &Scenario{
		Name:    "inline",
		Devices: smallDevices(),
		Steps: []Step{
			{Op: OpOpen, Handle: "h0", Mode: "rw"},
			{Op: OpWrite, Handle: "h0", Data: "ABCDEF", Full: true,
				Expect: &Expect{Count: int64p(6), Size: int64p(6)}},
			{Op: OpSeek, Handle: "h0", Offset: 0},
			{Op: OpRead, Handle: "h0", Count: 6, Full: true,
				Expect: &Expect{Count: int64p(6), Data: strp("ABCDEF")}},
			{Op: OpClose, Handle: "h0"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Failures)
	assert.Len(t, result.Trace.Events, 5)

	write := result.Trace.Events[1]
	assert.Equal(t, int64(6), write.N)
	assert.Equal(t, 2, write.Calls, "six bytes across quantum 4 takes two calls")
}

func TestRun_ExpectationFailure(t *testing.T) {
	s := &Scenario{
		Name:    "failing",
		Devices: smallDevices(),
		Steps: []Step{
			{Op: OpOpen, Handle: "h0", Mode: "rw"},
			{Op: OpWrite, Handle: "h0", Data: "ABCDEF",
				Expect: &Expect{Count: int64p(6)}}, // one call moves only 4
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "count = 4, want 6")
}

func TestRun_ExpectedErrorSatisfied(t *testing.T) {
	s := &Scenario{
		Name:    "bad-mode",
		Devices: smallDevices(),
		Steps: []Step{
			{Op: OpOpen, Handle: "h0", Mode: "ro"},
			{Op: OpWrite, Handle: "h0", Data: "X",
				Expect: &Expect{Error: "bad-mode"}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Failures)
}

func TestRun_StructuralErrors(t *testing.T) {
	t.Run("unknown handle", func(t *testing.T) {
		s := &Scenario{
			Name:    "x",
			Devices: smallDevices(),
			Steps:   []Step{{Op: OpRead, Handle: "nope", Count: 1}},
		}
		_, err := Run(s)
		assert.Error(t, err)
	})

	t.Run("duplicate label", func(t *testing.T) {
		s := &Scenario{
			Name:    "x",
			Devices: smallDevices(),
			Steps: []Step{
				{Op: OpOpen, Handle: "h0", Mode: "rw"},
				{Op: OpOpen, Handle: "h0", Mode: "ro"},
			},
		}
		_, err := Run(s)
		assert.Error(t, err)
	})
}

func TestRunWith_BaseConfig(t *testing.T) {
	// The scenario has no devices section, so the base config decides
	// the geometry.
	s := &Scenario{
		Name: "base",
		Steps: []Step{
			{Op: OpOpen, Handle: "h0", Mode: "rw"},
			{Op: OpWrite, Handle: "h0", Data: "ABCDEF",
				Expect: &Expect{Count: int64p(3)}},
		},
	}

	result, err := RunWith(s, device.Config{Quantum: 3, Qset: 2, Count: 1})
	require.NoError(t, err)
	assert.True(t, result.Passed(), "failures: %v", result.Failures)
}

func TestEvent_String(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"open", Event{Op: OpOpen, Handle: "h0", Device: "mem0", Mode: "rw"}, "open h0 mem0 mode=rw"},
		{"write", Event{Op: OpWrite, Handle: "h0", N: 4, Data: "ABCD", Size: 4}, `write h0 n=4 data="ABCD" size=4`},
		{"write looped", Event{Op: OpWrite, Handle: "h0", N: 8, Data: "ABCDEFGH", Size: 8, Calls: 2}, `write h0 n=8 data="ABCDEFGH" size=8 calls=2`},
		{"write error", Event{Op: OpWrite, Handle: "h0", Error: "out-of-memory"}, "write h0 error=out-of-memory"},
		{"read", Event{Op: OpRead, Handle: "h0", N: 4, Data: "ABCD", Calls: 1}, `read h0 n=4 data="ABCD"`},
		{"read eof", Event{Op: OpRead, Handle: "h0", Calls: 1, EOF: true}, "read h0 n=0 eof"},
		{"seek", Event{Op: OpSeek, Handle: "h0", Pos: 9}, "seek h0 pos=9"},
		{"trim", Event{Op: OpTrim, Device: "mem0"}, "trim mem0"},
		{"close", Event{Op: OpClose, Handle: "h0"}, "close h0"},
		{"dump", Event{Op: OpDump, Lines: []string{"Device mem0: qset 2, quantum 4, size 0"}}, "dump\n  Device mem0: qset 2, quantum 4, size 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.String())
		})
	}
}
