/*
Package scenario loads demo data sets into the engine.

PURPOSE:
  Provides pre-built scenarios that populate the engine with realistic
  users and shifts for demos and manual testing. Scenarios are declared in
  YAML, so new ones can be added without code changes: the built-ins live
  in scenarios.yaml and a deployment can supply more through a file.

YAML SCHEMA:
  - id: payroll-example
    name: Payroll Example
    description: ...
    category: payroll
    users:
      - first_name: Payroll
        last_name: Test
        hourly_wage: "20.00"
        shifts:
          - date: "2025-10-01"          # single day
            start: "09:00"
            end: "17:00"
          - from: "2025-10-06"          # inclusive range, scheduled through
            to: "2025-10-10"            # the range selector
            start: "09:00"
            end: "17:00"

HOW SCENARIOS WORK:
 1. Parse and validate the whole definition (dates, times, wages)
 2. Reset the engine (clear all data and selections)
 3. Create users in order
 4. Create each shift: AddEvent for a date, click-click-confirm for a range
 5. On failure, reset again so no half-loaded scenario remains

NOTE:
  Scenarios reset all data. Only use in development/demo environments.

SEE ALSO:
  - scenarios.yaml: Built-in definitions
  - api/scenarios.go: HTTP endpoints
*/
package scenario

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var builtinYAML []byte

var (
	// ErrUnknownScenario is returned when no scenario has the requested id.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrInvalidScenario wraps every definition problem found while parsing.
	ErrInvalidScenario = errors.New("invalid scenario")
)

var validate = validator.New()

// =============================================================================
// YAML DEFINITIONS
// =============================================================================

type Definition struct {
	ID          string    `yaml:"id" validate:"required"`
	Name        string    `yaml:"name" validate:"required"`
	Description string    `yaml:"description"`
	Category    string    `yaml:"category"`
	Users       []UserDef `yaml:"users" validate:"required,min=1,dive"`
}

type UserDef struct {
	FirstName  string     `yaml:"first_name" validate:"required"`
	LastName   string     `yaml:"last_name" validate:"required"`
	HourlyWage string     `yaml:"hourly_wage" validate:"required"`
	Shifts     []ShiftDef `yaml:"shifts" validate:"dive"`
}

// ShiftDef names either Date or a From/To range.
type ShiftDef struct {
	Date  string `yaml:"date" validate:"required_without=From,excluded_with=From"`
	From  string `yaml:"from" validate:"required_with=To"`
	To    string `yaml:"to" validate:"required_with=From"`
	Start string `yaml:"start" validate:"required"`
	End   string `yaml:"end" validate:"required"`
}

// =============================================================================
// COMPILED SCENARIOS
// =============================================================================

// Scenario is a validated definition ready to apply.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Category    string

	users []plannedUser
}

type plannedUser struct {
	firstName, lastName string
	wage                decimal.Decimal
	shifts              []plannedShift
}

type plannedShift struct {
	days       calendar.Range
	selection  bool
	start, end calendar.TimeOfDay
}

// Shifts is the number of events the scenario creates.
func (s *Scenario) Shifts() int {
	n := 0
	for _, u := range s.users {
		for _, sh := range u.shifts {
			n += sh.days.Len()
		}
	}
	return n
}

// Users is the number of users the scenario creates.
func (s *Scenario) Users() int { return len(s.users) }

// Compile validates d and resolves its dates, times and wages.
func (d Definition) Compile() (*Scenario, error) {
	if err := validate.Struct(d); err != nil {
		return nil, invalidScenario(d.ID, describe(err))
	}

	s := &Scenario{ID: d.ID, Name: d.Name, Description: d.Description, Category: d.Category}
	for i, u := range d.Users {
		wage, err := decimal.NewFromString(u.HourlyWage)
		if err != nil {
			return nil, invalidScenario(d.ID, fmt.Sprintf("users[%d]: hourly_wage %q is not a number", i, u.HourlyWage))
		}
		if wage.IsNegative() {
			return nil, invalidScenario(d.ID, fmt.Sprintf("users[%d]: hourly_wage must not be negative", i))
		}
		pu := plannedUser{firstName: u.FirstName, lastName: u.LastName, wage: wage}
		for j, sh := range u.Shifts {
			ps, err := sh.compile()
			if err != nil {
				return nil, invalidScenario(d.ID, fmt.Sprintf("users[%d].shifts[%d]: %v", i, j, err))
			}
			pu.shifts = append(pu.shifts, ps)
		}
		s.users = append(s.users, pu)
	}
	return s, nil
}

func (sh ShiftDef) compile() (plannedShift, error) {
	var ps plannedShift
	var err error
	if ps.start, err = calendar.ParseTimeOfDay(sh.Start); err != nil {
		return ps, err
	}
	if ps.end, err = calendar.ParseTimeOfDay(sh.End); err != nil {
		return ps, err
	}
	if ps.start >= ps.end {
		return ps, fmt.Errorf("start %s must be before end %s", ps.start, ps.end)
	}

	if sh.Date != "" {
		d, err := calendar.ParseISODate(sh.Date)
		if err != nil {
			return ps, err
		}
		ps.days = calendar.SingleDay(d)
		return ps, nil
	}

	from, err := calendar.ParseISODate(sh.From)
	if err != nil {
		return ps, err
	}
	to, err := calendar.ParseISODate(sh.To)
	if err != nil {
		return ps, err
	}
	ps.days = calendar.NewRange(from, to)
	ps.selection = true
	return ps, nil
}

func invalidScenario(id, msg string) error {
	if id == "" {
		return fmt.Errorf("%w: %s", ErrInvalidScenario, msg)
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidScenario, id, msg)
}

// describe converts validator errors into "field is required" messages.
func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required", "required_with", "required_without":
			msgs = append(msgs, field+" is required")
		case "excluded_with":
			msgs = append(msgs, field+" cannot be combined with a range")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s entries", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an id-keyed set of scenarios. It is safe for concurrent reads
// once built.
type Catalog struct {
	byID map[string]*Scenario
}

// Parse decodes a YAML list of definitions and compiles each one.
func Parse(data []byte) ([]*Scenario, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	out := make([]*Scenario, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if seen[d.ID] {
			return nil, invalidScenario(d.ID, "duplicate id")
		}
		seen[d.ID] = true
		s, err := d.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Builtin returns a catalog holding the embedded scenarios.
func Builtin() *Catalog {
	list, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("scenario: built-in scenarios: %v", err))
	}
	return NewCatalog(list...)
}

func NewCatalog(list ...*Scenario) *Catalog {
	c := &Catalog{byID: make(map[string]*Scenario)}
	c.Add(list...)
	return c
}

// Add registers scenarios, replacing any with the same id.
func (c *Catalog) Add(list ...*Scenario) {
	for _, s := range list {
		c.byID[s.ID] = s
	}
}

// LoadFile adds the scenarios defined in a YAML file.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenarios: %w", err)
	}
	list, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	c.Add(list...)
	return nil
}

// List returns all scenarios ordered by id.
func (c *Catalog) List() []*Scenario {
	out := make([]*Scenario, 0, len(c.byID))
	for _, s := range c.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) Get(id string) (*Scenario, error) {
	s, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return s, nil
}

// =============================================================================
// APPLY
// =============================================================================

// Result summarizes what a scenario created.
type Result struct {
	ScenarioID string
	Users      int
	Events     int
}

// Apply resets e and creates the scenario's users and shifts.
func Apply(ctx context.Context, e *engine.Engine, s *Scenario) (Result, error) {
	if err := e.Reset(ctx); err != nil {
		return Result{}, fmt.Errorf("reset: %w", err)
	}
	res, err := apply(ctx, e, s)
	if err != nil {
		if resetErr := e.Reset(ctx); resetErr != nil {
			return Result{}, errors.Join(err, fmt.Errorf("reset after failure: %w", resetErr))
		}
		return Result{}, err
	}
	return res, nil
}

func apply(ctx context.Context, e *engine.Engine, s *Scenario) (Result, error) {
	res := Result{ScenarioID: s.ID}
	session := "scenario:" + s.ID
	for _, pu := range s.users {
		u, err := e.AddUser(ctx, pu.firstName, pu.lastName, pu.wage)
		if err != nil {
			return Result{}, fmt.Errorf("add user %s %s: %w", pu.firstName, pu.lastName, err)
		}
		res.Users++

		for _, sh := range pu.shifts {
			if !sh.selection {
				if _, err := e.AddEvent(ctx, u.ID, sh.days.Start, sh.start, sh.end); err != nil {
					return Result{}, fmt.Errorf("add shift on %s: %w", sh.days.Start, err)
				}
				res.Events++
				continue
			}
			e.Click(session, sh.days.Start)
			e.Click(session, sh.days.End)
			created, err := e.Confirm(ctx, session, u.ID, sh.start, sh.end)
			if err != nil {
				return Result{}, fmt.Errorf("schedule %s: %w", sh.days, err)
			}
			res.Events += len(created)
		}
	}
	return res, nil
}
