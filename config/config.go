// Package config parses and validates the engine's argv surface (spec
// §6). Configuration is set once at startup and read-only thereafter,
// per spec §5; there is no environment-variable input.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/latticefi/fixrelay/session"
)

// Usage is printed on argument errors, mirroring the original C++
// binaries' usage strings (spec §6).
const Usage = `usage: fixrelay <listen_ip> <listen_port> <forward_ip> <forward_port> <rx_cpu> <tx_cpu> <sleep_cpu> [--profile=relay|ouch|lite] [--username=U --password=P] [--price=D --tif=N] [--measure-latency <log_file> <flush_interval_ms> [--debug-level=2] [--verbose-latency]] [--metrics-addr=host:port]`

// DefaultPrice and DefaultTIF are spec §4.5's demo placeholder values,
// overridable via --price/--tif since §9 flags their business meaning
// as an open question rather than settling it.
const (
	DefaultPrice = 1000000
	DefaultTIF   = 3600
)

// Config is the fully parsed and validated argv surface.
type Config struct {
	ListenAddr     string
	ForwardIP      string
	ForwardPort    int
	RXCPU          int
	TXCPU          int
	SleepCPU       int
	Profile        session.ProfileKind
	Username       string
	Password       string
	PriceTicks     uint32
	TIFSeconds     uint32
	MeasureLatency bool
	LogFile        string
	FlushIntervalMS int
	DebugLevel     int
	VerboseLatency bool
	MetricsAddr    string
}

// Parse validates argv (excluding argv[0]) against spec §6's CLI
// surface. A non-nil error here is always a configuration error: spec
// §7 makes that fatal at startup with exit code 1.
func Parse(args []string) (*Config, error) {
	if len(args) < 7 {
		return nil, fmt.Errorf("%s", Usage)
	}

	listenIP := args[0]
	listenPort, err := parsePort(args[1])
	if err != nil {
		return nil, fmt.Errorf("listen_port: %w", err)
	}
	forwardIP := args[2]
	if net.ParseIP(listenIP) == nil {
		return nil, fmt.Errorf("listen_ip %q is not a valid IP literal", listenIP)
	}
	if net.ParseIP(forwardIP) == nil {
		return nil, fmt.Errorf("forward_ip %q is not a valid IP literal", forwardIP)
	}
	forwardPort, err := parsePort(args[3])
	if err != nil {
		return nil, fmt.Errorf("forward_port: %w", err)
	}
	rxCPU, err := strconv.Atoi(args[4])
	if err != nil {
		return nil, fmt.Errorf("rx_cpu: %w", err)
	}
	txCPU, err := strconv.Atoi(args[5])
	if err != nil {
		return nil, fmt.Errorf("tx_cpu: %w", err)
	}
	sleepCPU, err := strconv.Atoi(args[6])
	if err != nil {
		return nil, fmt.Errorf("sleep_cpu: %w", err)
	}

	cfg := &Config{
		ListenAddr:      net.JoinHostPort(listenIP, strconv.Itoa(listenPort)),
		ForwardIP:       forwardIP,
		ForwardPort:     forwardPort,
		RXCPU:           rxCPU,
		TXCPU:           txCPU,
		SleepCPU:        sleepCPU,
		Profile:         session.ProfileRelay,
		FlushIntervalMS: 50,
		PriceTicks:      DefaultPrice,
		TIFSeconds:      DefaultTIF,
	}

	rest := args[7:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--measure-latency":
			if i+2 >= len(rest) {
				return nil, fmt.Errorf("--measure-latency requires <log_file> <flush_interval_ms>")
			}
			cfg.MeasureLatency = true
			cfg.LogFile = rest[i+1]
			interval, err := strconv.Atoi(rest[i+2])
			if err != nil {
				return nil, fmt.Errorf("flush_interval_ms: %w", err)
			}
			cfg.FlushIntervalMS = interval
			i += 2
		case hasPrefix(arg, "--debug-level="):
			lvl, err := strconv.Atoi(arg[len("--debug-level="):])
			if err != nil {
				return nil, fmt.Errorf("--debug-level: %w", err)
			}
			cfg.DebugLevel = lvl
		case arg == "--verbose-latency":
			cfg.VerboseLatency = true
		case hasPrefix(arg, "--profile="):
			switch arg[len("--profile="):] {
			case "relay":
				cfg.Profile = session.ProfileRelay
			case "ouch":
				cfg.Profile = session.ProfileTranslateOuch
			case "lite":
				cfg.Profile = session.ProfileTranslateLite
			default:
				return nil, fmt.Errorf("--profile: unknown profile %q", arg)
			}
		case hasPrefix(arg, "--username="):
			cfg.Username = arg[len("--username="):]
		case hasPrefix(arg, "--password="):
			cfg.Password = arg[len("--password="):]
		case hasPrefix(arg, "--price="):
			ticks, err := decimalDollarsToTicks(arg[len("--price="):])
			if err != nil {
				return nil, fmt.Errorf("--price: %w", err)
			}
			cfg.PriceTicks = ticks
		case hasPrefix(arg, "--tif="):
			tif, err := strconv.Atoi(arg[len("--tif="):])
			if err != nil || tif < 0 {
				return nil, fmt.Errorf("--tif: invalid value %q", arg)
			}
			cfg.TIFSeconds = uint32(tif)
		case hasPrefix(arg, "--metrics-addr="):
			cfg.MetricsAddr = arg[len("--metrics-addr="):]
		default:
			return nil, fmt.Errorf("unrecognised argument %q\n%s", arg, Usage)
		}
	}

	return cfg, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if p <= 0 || p > 65535 {
		return 0, fmt.Errorf("port %d out of range", p)
	}
	return p, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// decimalDollarsToTicks converts a human dollar price like "100.00"
// into the fixed-point tick value BINish prices are carried as on the
// wire: four implied decimal places, matching spec §4.5's
// 1,000,000 == $100.0000 convention.
func decimalDollarsToTicks(s string) (uint32, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	ticks := d.Mul(decimal.New(10000, 0))
	if ticks.IsNegative() {
		return 0, fmt.Errorf("price must be non-negative")
	}
	return uint32(ticks.IntPart()), nil
}
