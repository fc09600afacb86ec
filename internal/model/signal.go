package model

import (
	"fmt"
	"strings"
)

// Signal identifies the net a region or via belongs to.
type Signal uint8

const (
	SignalEmpty Signal = iota
	SignalPower1
	SignalPower2
	SignalPower3
	SignalPower4
	SignalPower5
	SignalPower6
	SignalPower7
	SignalPower8
	SignalPower9
	SignalPower10
	SignalGround
	SignalData // non-power signal routing
	SignalObstacle
	SignalOverlap
	SignalUnknown
)

var signalNames = [...]string{
	"EMPTY",
	"POWER_1", "POWER_2", "POWER_3", "POWER_4", "POWER_5",
	"POWER_6", "POWER_7", "POWER_8", "POWER_9", "POWER_10",
	"GROUND", "SIGNAL", "OBSTACLE", "OVERLAP", "UNKNOWN",
}

var signalAliases = map[string]Signal{
	"GND":       SignalGround,
	"SIG":       SignalData,
	"OBST":      SignalObstacle,
	"OBSTACLES": SignalObstacle,
}

func init() {
	for i := 1; i <= 10; i++ {
		signalAliases[fmt.Sprintf("PWR_%d", i)] = Power(i)
		signalAliases[fmt.Sprintf("P%d", i)] = Power(i)
	}
}

// Power returns the n-th power net, 1 ≤ n ≤ 10.
func Power(n int) Signal {
	if n < 1 || n > 10 {
		return SignalUnknown
	}
	return Signal(n)
}

// PowerSignals lists POWER_1 through POWER_10.
func PowerSignals() []Signal {
	out := make([]Signal, 10)
	for i := range out {
		out[i] = Signal(i + 1)
	}
	return out
}

// IsPower reports whether s is one of the power nets that form soft bodies.
func (s Signal) IsPower() bool {
	return s >= SignalPower1 && s <= SignalPower10
}

func (s Signal) String() string {
	if int(s) < len(signalNames) {
		return signalNames[s]
	}
	return fmt.Sprintf("Signal(%d)", uint8(s))
}

// ParseSignal accepts canonical names and the short aliases (P1, PWR_1,
// GND, SIG, OBST), case-insensitively.
func ParseSignal(name string) (Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, s := range signalNames {
		if s == n {
			return Signal(i), nil
		}
	}
	if s, ok := signalAliases[n]; ok {
		return s, nil
	}
	return SignalUnknown, fmt.Errorf("unknown signal type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signal) UnmarshalText(b []byte) error {
	v, err := ParseSignal(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
