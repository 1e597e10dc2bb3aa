package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/smarthome-core/internal/automation"
	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/eventlog"
	"github.com/nerrad567/smarthome-core/internal/home"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthome-core/internal/store"
)

// errUsage marks a command line that does not match any command.
var errUsage = errors.New("usage")

const defaultLogLines = 20

// app bundles what a single command needs.
type app struct {
	cfg   *config.Config
	home  *home.Home
	store store.Store
	out   io.Writer
	log   *logging.Logger

	textLog *eventlog.TextFile   // nil when home.event_log is empty
	events  *eventlog.SQLiteSink // nil unless database.event_log is set
	influx  *influxdb.Client     // nil unless InfluxDB is connected
}

type command struct {
	usage   string
	mutates bool
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"users":   {usage: "users", run: listUsers},
	"user":    {usage: "user add|remove <name>", mutates: true, run: userCommand},
	"devices": {usage: "devices [user]", run: listDevices},
	"device": {
		usage:   "device add <kind> <id> <owner> | remove <id> | control <id> <action> [key=value...] | share|unshare <id> <user>",
		mutates: true,
		run:     deviceCommand,
	},
	"rules": {usage: "rules", run: listRules},
	"rule":  {usage: "rule add <template> [threshold=N] [device=ID] | remove <index>", mutates: true, run: ruleCommand},
	"run":   {usage: "run temperature=N has_person=bool [door_locked=bool]", mutates: true, run: runRules},
	"logs":  {usage: "logs [n]", run: showLogs},
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: smarthome [-config path] <command> [args...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// load restores the saved home. Malformed or invalid state is reported
// and the command carries on with whatever could be restored.
func (a *app) load(ctx context.Context) error {
	snap, err := a.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrMalformed):
		a.log.Error("saved home is malformed, starting empty", "error", err)
	case err != nil:
		return fmt.Errorf("loading home: %w", err)
	default:
		if restoreErr := a.home.Restore(snap); restoreErr != nil {
			a.log.Error("saved home is invalid, starting empty", "error", restoreErr)
		}
	}

	records, err := a.store.LoadRules(ctx)
	switch {
	case errors.Is(err, store.ErrMalformed):
		a.log.Error("saved rules are malformed, starting without rules", "error", err)
	case err != nil:
		return fmt.Errorf("loading rules: %w", err)
	default:
		if restoreErr := a.home.RestoreRules(records); restoreErr != nil {
			a.log.Warn("some rules could not be rebuilt and will not run", "error", restoreErr)
		}
	}
	return nil
}

func (a *app) save(ctx context.Context) error {
	if err := a.store.Save(ctx, a.home.Snapshot()); err != nil {
		return fmt.Errorf("saving home: %w", err)
	}
	if err := a.store.SaveRules(ctx, a.home.RuleRecords()); err != nil {
		return fmt.Errorf("saving rules: %w", err)
	}
	return nil
}

// dispatch runs the command named by args[0] and saves afterwards when
// the command can change state.
func (a *app) dispatch(ctx context.Context, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(a.out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	err := cmd.run(ctx, a, args[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: smarthome %s", cmd.usage)
	}
	if err != nil {
		return err
	}
	if cmd.mutates {
		return a.save(ctx)
	}
	return nil
}

// ─── Users ──────────────────────────────────────────────────────────────────

func listUsers(_ context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	for _, u := range a.home.Users() {
		fmt.Fprintf(a.out, "%s\t%s\n", u.Username, strings.Join(u.Devices, ","))
	}
	return nil
}

func userCommand(_ context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	switch args[0] {
	case "add":
		if err := a.home.AddUser(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "user %s added\n", args[1])
	case "remove":
		if err := a.home.RemoveUser(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "user %s removed\n", args[1])
	default:
		return errUsage
	}
	return nil
}

// ─── Devices ────────────────────────────────────────────────────────────────

func listDevices(_ context.Context, a *app, args []string) error {
	switch len(args) {
	case 0:
		for _, d := range a.home.Devices() {
			printDevice(a.out, d)
		}
	case 1:
		ud, err := a.home.DevicesFor(args[0])
		if err != nil {
			return err
		}
		for _, id := range ud.All {
			d, err := a.home.Device(id)
			if err != nil {
				return err
			}
			printDevice(a.out, d)
		}
	default:
		return errUsage
	}
	return nil
}

func printDevice(w io.Writer, d *device.Device) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%v", d.ID, d.Name, d.Power, map[string]any(d.Attributes))
	if len(d.SharedWith) > 0 {
		fmt.Fprintf(w, "\tshared: %s", strings.Join(d.SharedWith, ","))
	}
	fmt.Fprintln(w)
}

func deviceCommand(_ context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	switch sub, rest := args[0], args[1:]; sub {
	case "add":
		if len(rest) != 3 {
			return errUsage
		}
		d, err := a.home.AddDevice(rest[0], rest[1], rest[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "device %s (%s) added for %s\n", d.ID, d.Name, rest[2])
	case "remove":
		if len(rest) != 1 {
			return errUsage
		}
		if err := a.home.RemoveDevice(rest[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "device %s removed\n", rest[0])
	case "control":
		if len(rest) < 2 {
			return errUsage
		}
		params, err := parseAssignments(rest[2:])
		if err != nil {
			return err
		}
		res, err := a.home.ControlDevice(rest[0], rest[1], device.Params(params))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s: %s\n", rest[0], rest[1], res)
	case "share", "unshare":
		if len(rest) != 2 {
			return errUsage
		}
		share := a.home.ShareDevice
		if sub == "unshare" {
			share = a.home.UnshareDevice
		}
		if err := share(rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "device %s %sd with %s\n", rest[0], sub, rest[1])
	default:
		return errUsage
	}
	return nil
}

// ─── Rules ──────────────────────────────────────────────────────────────────

func listRules(_ context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	for i, desc := range a.home.Rules() {
		fmt.Fprintf(a.out, "[%d] %s\n", i, desc)
	}
	return nil
}

func ruleCommand(_ context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	switch args[0] {
	case "add":
		r, err := a.templateRule(automation.Template(args[1]), args[2:])
		if err != nil {
			return err
		}
		if err := a.home.AddRule(r); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "rule added: %s\n", r.Description())
	case "remove":
		if len(args) != 2 {
			return errUsage
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("rule index %q: %w", args[1], automation.ErrInvalidRuleIndex)
		}
		if err := a.home.RemoveRule(index); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "rule %d removed\n", index)
	default:
		return errUsage
	}
	return nil
}

// templateRule builds a template rule from threshold=N and device=ID
// arguments. Temperature templates default to the configured thresholds.
func (a *app) templateRule(t automation.Template, args []string) (*automation.TemplateRule, error) {
	opts, err := parseAssignments(args)
	if err != nil {
		return nil, err
	}

	params := map[string]any{}
	for k, v := range opts {
		switch k {
		case "threshold":
			params[automation.ParamThreshold] = v
		case "device":
			params[automation.ParamDeviceID] = v
		default:
			return nil, fmt.Errorf("%w: unknown option %q", automation.ErrInvalidRule, k)
		}
	}

	if _, ok := params[automation.ParamThreshold]; !ok {
		switch t {
		case automation.TemplateTemperatureHigh:
			params[automation.ParamThreshold] = a.cfg.Automation.TemperatureHigh
		case automation.TemplateTemperatureLow:
			params[automation.ParamThreshold] = a.cfg.Automation.TemperatureLow
		}
	}
	return automation.NewTemplate(t, params)
}

func runRules(_ context.Context, a *app, args []string) error {
	raw, err := parseAssignments(args)
	if err != nil {
		return err
	}
	readings := make(map[string]any, len(raw))
	for name, v := range raw {
		readings[name] = readingValue(v.(string))
	}
	if a.influx != nil {
		now := time.Now()
		for name, v := range readings {
			a.influx.WriteSensorReading(name, v, now)
		}
	}
	n := a.home.RunRules(readings)
	fmt.Fprintf(a.out, "%d of %d rules triggered\n", n, len(a.home.Rules()))
	return nil
}

// ─── Event log ──────────────────────────────────────────────────────────────

func showLogs(ctx context.Context, a *app, args []string) error {
	n := defaultLogLines
	switch len(args) {
	case 0:
	case 1:
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return errUsage
		}
		n = v
	default:
		return errUsage
	}
	if n == 0 {
		return nil
	}

	switch {
	case a.events != nil:
		res, err := a.events.List(ctx, eventlog.Filter{Limit: n})
		if err != nil {
			return err
		}
		// List is newest first; print oldest first like the text log.
		for _, e := range slices.Backward(res.Entries) {
			fmt.Fprintln(a.out, e.String())
		}
	case a.textLog != nil:
		lines, err := a.textLog.Recent(n)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Fprintln(a.out, line)
		}
	default:
		return errors.New("event log is disabled")
	}
	return nil
}

// parseAssignments turns key=value arguments into a map. Values stay
// strings; device setters and rule templates convert them to the type
// they need.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[k] = v
	}
	return out, nil
}

// readingValue types a sensor reading for InfluxDB: finite numbers and
// true/false become those types, anything else stays a string.
func readingValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
