// Package config provides Viper-based configuration loading for the quizboss server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Name identifies this server instance in logs and admin responses.
	Name string `mapstructure:"name"`
	// MaxSessions caps concurrently running boss fights. Zero means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
	// ShutdownTimeout bounds graceful shutdown of all services.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// RecordResults stores the outcome of every finished session.
	RecordResults bool `mapstructure:"record_results"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// AdminConfig holds the gRPC admin endpoint settings.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr returns the "host:port" gRPC address.
func (a AdminConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig locates question packs and encounter scripts.
type ContentConfig struct {
	// Source is where packs are read from: "files" or "database".
	Source string `mapstructure:"source"`
	// PacksDir holds *.yaml, *.yml and *.json question packs.
	PacksDir string `mapstructure:"packs_dir"`
	// DefaultPack is the pack name a new session plays when none is chosen.
	DefaultPack string `mapstructure:"default_pack"`
	// ScriptsDir holds Lua encounter scripts. Empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// Watch reloads packs and scripts on file change for sessions started afterwards.
	Watch bool `mapstructure:"watch"`
	// ScriptInstructionLimit bounds each Lua hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// SessionConfig controls the per-session tick loop.
type SessionConfig struct {
	// FrameRate is the number of frame updates per second.
	FrameRate int `mapstructure:"frame_rate"`
	// PhysicsRate is the number of fixed physics steps per second.
	PhysicsRate int `mapstructure:"physics_rate"`
	// InputBuffer is the capacity of the per-session input channel.
	InputBuffer int `mapstructure:"input_buffer"`
	// HitStop is the game-time freeze applied on a confirmed Power Play hit.
	HitStop time.Duration `mapstructure:"hit_stop"`
}

// BossConfig tunes the boss health, phases and punish flow.
type BossConfig struct {
	MaxHP           int           `mapstructure:"max_hp"`
	TransitionDelay time.Duration `mapstructure:"transition_delay"`
	WrongTelegraph  time.Duration `mapstructure:"wrong_telegraph"`
	PerfectWindow   time.Duration `mapstructure:"perfect_window"`
	PunishDamage    int           `mapstructure:"punish_damage"`
	// PatrolDuringQuestion makes the boss orbit the player while a question is open.
	PatrolDuringQuestion bool    `mapstructure:"patrol_during_question"`
	PatrolRadius         float64 `mapstructure:"patrol_radius"`
	PatrolSpeed          float64 `mapstructure:"patrol_speed"`
	AttackRange          float64 `mapstructure:"attack_range"`
}

// AttackConfig tunes the boss melee attack sequence.
type AttackConfig struct {
	Windup time.Duration `mapstructure:"windup"`
	Active time.Duration `mapstructure:"active"`
	// Drive is "timed" (scheduler driven) or "markers" (external start/end calls).
	Drive               string  `mapstructure:"drive"`
	AimAtTarget         bool    `mapstructure:"aim_at_target"`
	AngleOffsetDegrees  float64 `mapstructure:"angle_offset_degrees"`
	AdvanceTowardTarget bool    `mapstructure:"advance_toward_target"`
	ForwardDistance     float64 `mapstructure:"forward_distance"`
	// LockPrediction freezes the telegraphed pose during windup.
	LockPrediction bool `mapstructure:"lock_prediction"`
}

// PowerPlayConfig tunes the Power Play bonus window.
type PowerPlayConfig struct {
	Duration          time.Duration `mapstructure:"duration"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
	BossVulnerability float64       `mapstructure:"boss_vulnerability"`
	PlayerDamageBonus float64       `mapstructure:"player_damage_bonus"`
	SpeedBonus        float64       `mapstructure:"speed_bonus"`
}

// FlowConfig tunes question pacing.
type FlowConfig struct {
	// AdvanceMode is "auto" or "manual".
	AdvanceMode              string        `mapstructure:"advance_mode"`
	CorrectAdvanceDelay      time.Duration `mapstructure:"correct_advance_delay"`
	TimeoutAdvanceDelay      time.Duration `mapstructure:"timeout_advance_delay"`
	ManualPromptDelay        time.Duration `mapstructure:"manual_prompt_delay"`
	WrongAnswerTimeout       time.Duration `mapstructure:"wrong_answer_timeout"`
	ManualWrongAnswerTimeout time.Duration `mapstructure:"manual_wrong_answer_timeout"`
	WrongAnswerGrace         time.Duration `mapstructure:"wrong_answer_grace"`
	ManualWrongAnswerGrace   time.Duration `mapstructure:"manual_wrong_answer_grace"`
	SafeZonePoll             time.Duration `mapstructure:"safe_zone_poll"`
	PerfectDodgeBonus        float64       `mapstructure:"perfect_dodge_bonus"`
	MaxCombo                 int           `mapstructure:"max_combo"`
	FreezeDuration           time.Duration `mapstructure:"freeze_duration"`
}

// FormulaConfig holds the answer damage coefficients.
type FormulaConfig struct {
	BaseEasy      float64 `mapstructure:"base_easy"`
	BaseMedium    float64 `mapstructure:"base_medium"`
	BaseHard      float64 `mapstructure:"base_hard"`
	ComboBonus    float64 `mapstructure:"combo_bonus"`
	MaxMultiplier float64 `mapstructure:"max_multiplier"`
	TimeBonusMax  float64 `mapstructure:"time_bonus_max"`
}

// PlayerConfig tunes the player avatar.
type PlayerConfig struct {
	MaxHearts       int           `mapstructure:"max_hearts"`
	MoveSpeed       float64       `mapstructure:"move_speed"`
	DashSpeed       float64       `mapstructure:"dash_speed"`
	DashDuration    time.Duration `mapstructure:"dash_duration"`
	DashCooldown    time.Duration `mapstructure:"dash_cooldown"`
	AttackDamage    int           `mapstructure:"attack_damage"`
	AttackCooldown  time.Duration `mapstructure:"attack_cooldown"`
	AttackWindow    time.Duration `mapstructure:"attack_window"`
	MaxCharges      int           `mapstructure:"max_charges"`
	FocusMax        int           `mapstructure:"focus_max"`
	FocusStart      int           `mapstructure:"focus_start"`
	CorrectUnfreeze time.Duration `mapstructure:"correct_unfreeze"`
	ReadyDebounce   time.Duration `mapstructure:"ready_debounce"`
}

// ArenaConfig lays out the collision space.
type ArenaConfig struct {
	Width          float64 `mapstructure:"width"`
	Height         float64 `mapstructure:"height"`
	StationX       float64 `mapstructure:"station_x"`
	StationY       float64 `mapstructure:"station_y"`
	StationSize    float64 `mapstructure:"station_size"`
	EjectMargin    float64 `mapstructure:"eject_margin"`
	PlayerRadius   float64 `mapstructure:"player_radius"`
	BossRadius     float64 `mapstructure:"boss_radius"`
	BossX          float64 `mapstructure:"boss_x"`
	BossY          float64 `mapstructure:"boss_y"`
	BossHitRadius  float64 `mapstructure:"boss_hit_radius"`
	PlayerHitReach float64 `mapstructure:"player_hit_reach"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Content   ContentConfig   `mapstructure:"content"`
	Session   SessionConfig   `mapstructure:"session"`
	Boss      BossConfig      `mapstructure:"boss"`
	Attack    AttackConfig    `mapstructure:"attack"`
	PowerPlay PowerPlayConfig `mapstructure:"powerplay"`
	Flow      FlowConfig      `mapstructure:"flow"`
	Formula   FormulaConfig   `mapstructure:"formula"`
	Player    PlayerConfig    `mapstructure:"player"`
	Arena     ArenaConfig     `mapstructure:"arena"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	validators := []func() error{
		func() error { return validateServer(c.Server) },
		func() error { return validateDatabase(c.Database, c.NeedsDatabase()) },
		func() error { return validateTelnet(c.Telnet) },
		func() error { return validateAdmin(c.Admin) },
		func() error { return validateLogging(c.Logging) },
		func() error { return validateContent(c.Content) },
		func() error { return validateSession(c.Session) },
		func() error { return validateBoss(c.Boss) },
		func() error { return validateAttack(c.Attack) },
		func() error { return validatePowerPlay(c.PowerPlay) },
		func() error { return validateFlow(c.Flow) },
		func() error { return validateFormula(c.Formula) },
		func() error { return validatePlayer(c.Player) },
		func() error { return validateArena(c.Arena) },
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Name == "" {
		errs = append(errs, "server.name must not be empty")
	}
	if s.MaxSessions < 0 {
		errs = append(errs, fmt.Sprintf("server.max_sessions must be >= 0, got %d", s.MaxSessions))
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	return joinErrs(errs)
}

// NeedsDatabase reports whether packs come from postgres or session results
// are recorded there.
func (c Config) NeedsDatabase() bool {
	return c.Content.Source == "database" || c.Database.RecordResults
}

// validateDatabase only enforces connection fields when postgres is in use.
func validateDatabase(d DatabaseConfig, required bool) error {
	if !required {
		return nil
	}
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joinErrs(errs)
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 0 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 0-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	return joinErrs(errs)
}

func validateAdmin(a AdminConfig) error {
	if !a.Enabled {
		return nil
	}
	var errs []string
	if a.Host == "" {
		errs = append(errs, "admin.host must not be empty")
	}
	if a.Port < 0 || a.Port > 65535 {
		errs = append(errs, fmt.Sprintf("admin.port must be 0-65535, got %d", a.Port))
	}
	return joinErrs(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	switch c.Source {
	case "files":
		if c.PacksDir == "" {
			errs = append(errs, "content.packs_dir must not be empty when content.source is files")
		}
	case "database":
	default:
		errs = append(errs, fmt.Sprintf("content.source must be one of [files, database], got %q", c.Source))
	}
	if c.DefaultPack == "" {
		errs = append(errs, "content.default_pack must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, "content.script_instruction_limit must not be negative")
	}
	return joinErrs(errs)
}

func validateSession(s SessionConfig) error {
	var errs []string
	if s.FrameRate < 1 || s.FrameRate > 240 {
		errs = append(errs, fmt.Sprintf("session.frame_rate must be 1-240, got %d", s.FrameRate))
	}
	if s.PhysicsRate < 1 || s.PhysicsRate > 240 {
		errs = append(errs, fmt.Sprintf("session.physics_rate must be 1-240, got %d", s.PhysicsRate))
	}
	if s.InputBuffer < 1 {
		errs = append(errs, fmt.Sprintf("session.input_buffer must be >= 1, got %d", s.InputBuffer))
	}
	if s.HitStop < 0 {
		errs = append(errs, "session.hit_stop must not be negative")
	}
	return joinErrs(errs)
}

func validateBoss(b BossConfig) error {
	var errs []string
	if b.MaxHP < 1 {
		errs = append(errs, fmt.Sprintf("boss.max_hp must be >= 1, got %d", b.MaxHP))
	}
	if b.TransitionDelay < 0 || b.WrongTelegraph < 0 || b.PerfectWindow < 0 {
		errs = append(errs, "boss timings must not be negative")
	}
	if b.PunishDamage < 0 {
		errs = append(errs, fmt.Sprintf("boss.punish_damage must be >= 0, got %d", b.PunishDamage))
	}
	if b.PatrolRadius < 0 || b.PatrolSpeed < 0 || b.AttackRange < 0 {
		errs = append(errs, "boss patrol settings must not be negative")
	}
	return joinErrs(errs)
}

func validateAttack(a AttackConfig) error {
	var errs []string
	if a.Drive != "timed" && a.Drive != "markers" {
		errs = append(errs, fmt.Sprintf("attack.drive must be one of [timed, markers], got %q", a.Drive))
	}
	if a.Windup < 0 {
		errs = append(errs, "attack.windup must not be negative")
	}
	if a.Active <= 0 {
		errs = append(errs, "attack.active must be positive")
	}
	if a.ForwardDistance < 0 {
		errs = append(errs, "attack.forward_distance must not be negative")
	}
	return joinErrs(errs)
}

func validatePowerPlay(p PowerPlayConfig) error {
	var errs []string
	if p.Duration <= 0 {
		errs = append(errs, "powerplay.duration must be positive")
	}
	if p.Cooldown < 0 {
		errs = append(errs, "powerplay.cooldown must not be negative")
	}
	if p.BossVulnerability < 1 {
		errs = append(errs, fmt.Sprintf("powerplay.boss_vulnerability must be >= 1, got %v", p.BossVulnerability))
	}
	if p.PlayerDamageBonus < 0 || p.SpeedBonus < 0 {
		errs = append(errs, "powerplay bonuses must not be negative")
	}
	return joinErrs(errs)
}

func validateFlow(f FlowConfig) error {
	var errs []string
	if f.AdvanceMode != "auto" && f.AdvanceMode != "manual" {
		errs = append(errs, fmt.Sprintf("flow.advance_mode must be one of [auto, manual], got %q", f.AdvanceMode))
	}
	if f.SafeZonePoll <= 0 {
		errs = append(errs, "flow.safe_zone_poll must be positive")
	}
	if f.WrongAnswerTimeout <= 0 || f.ManualWrongAnswerTimeout <= 0 {
		errs = append(errs, "flow wrong answer timeouts must be positive")
	}
	for name, d := range map[string]time.Duration{
		"correct_advance_delay":     f.CorrectAdvanceDelay,
		"timeout_advance_delay":     f.TimeoutAdvanceDelay,
		"manual_prompt_delay":       f.ManualPromptDelay,
		"wrong_answer_grace":        f.WrongAnswerGrace,
		"manual_wrong_answer_grace": f.ManualWrongAnswerGrace,
		"freeze_duration":           f.FreezeDuration,
	} {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("flow.%s must not be negative", name))
		}
	}
	if f.PerfectDodgeBonus < 0 {
		errs = append(errs, "flow.perfect_dodge_bonus must not be negative")
	}
	if f.MaxCombo < 0 {
		errs = append(errs, fmt.Sprintf("flow.max_combo must be >= 0, got %d", f.MaxCombo))
	}
	return joinErrs(errs)
}

func validateFormula(f FormulaConfig) error {
	var errs []string
	if f.BaseEasy <= 0 || f.BaseMedium <= 0 || f.BaseHard <= 0 {
		errs = append(errs, "formula base damages must be positive")
	}
	if f.ComboBonus < 0 || f.TimeBonusMax < 0 {
		errs = append(errs, "formula bonuses must not be negative")
	}
	if f.MaxMultiplier < 1 {
		errs = append(errs, fmt.Sprintf("formula.max_multiplier must be >= 1, got %v", f.MaxMultiplier))
	}
	return joinErrs(errs)
}

func validatePlayer(p PlayerConfig) error {
	var errs []string
	if p.MaxHearts < 1 {
		errs = append(errs, fmt.Sprintf("player.max_hearts must be >= 1, got %d", p.MaxHearts))
	}
	if p.MoveSpeed <= 0 || p.DashSpeed <= 0 {
		errs = append(errs, "player speeds must be positive")
	}
	if p.AttackDamage < 1 {
		errs = append(errs, fmt.Sprintf("player.attack_damage must be >= 1, got %d", p.AttackDamage))
	}
	if p.AttackWindow <= 0 {
		errs = append(errs, "player.attack_window must be positive")
	}
	if p.FocusStart < 0 || p.FocusStart > p.FocusMax {
		errs = append(errs, fmt.Sprintf("player.focus_start must be within [0, %d], got %d", p.FocusMax, p.FocusStart))
	}
	if p.MaxCharges < 0 {
		errs = append(errs, "player.max_charges must not be negative")
	}
	return joinErrs(errs)
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.Width <= 0 || a.Height <= 0 {
		errs = append(errs, "arena dimensions must be positive")
	}
	if a.StationSize <= 0 {
		errs = append(errs, "arena.station_size must be positive")
	}
	if a.PlayerRadius <= 0 || a.BossRadius <= 0 || a.BossHitRadius <= 0 {
		errs = append(errs, "arena radii must be positive")
	}
	if a.PlayerHitReach < 0 {
		errs = append(errs, "arena.player_hit_reach must not be negative")
	}
	if a.EjectMargin < 0 {
		errs = append(errs, "arena.eject_margin must not be negative")
	}
	return joinErrs(errs)
}

// ErrNoConfigFile is returned by Load when path is empty.
var ErrNoConfigFile = errors.New("config file path must not be empty")

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrNoConfigFile
	}
	v := NewViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with QUIZBOSS_ environment overrides and
// every default applied.
//
// Postcondition: Returns a non-nil Viper that yields a valid Config on its own.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("QUIZBOSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "quizboss")
	v.SetDefault("server.max_sessions", 64)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "quizboss")
	v.SetDefault("database.password", "quizboss")
	v.SetDefault("database.name", "quizboss")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.record_results", false)

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "10m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 50061)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("content.source", "files")
	v.SetDefault("content.packs_dir", "content/packs")
	v.SetDefault("content.default_pack", "General Knowledge")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.watch", false)
	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("session.frame_rate", 30)
	v.SetDefault("session.physics_rate", 50)
	v.SetDefault("session.input_buffer", 32)
	v.SetDefault("session.hit_stop", "60ms")

	v.SetDefault("boss.max_hp", 100)
	v.SetDefault("boss.transition_delay", "1s")
	v.SetDefault("boss.wrong_telegraph", "600ms")
	v.SetDefault("boss.perfect_window", "200ms")
	v.SetDefault("boss.punish_damage", 1)
	v.SetDefault("boss.patrol_during_question", true)
	v.SetDefault("boss.patrol_radius", 1.5)
	v.SetDefault("boss.patrol_speed", 1.5)
	v.SetDefault("boss.attack_range", 2.0)

	v.SetDefault("attack.windup", "200ms")
	v.SetDefault("attack.active", "200ms")
	v.SetDefault("attack.drive", "timed")
	v.SetDefault("attack.aim_at_target", true)
	v.SetDefault("attack.angle_offset_degrees", 0.0)
	v.SetDefault("attack.advance_toward_target", true)
	v.SetDefault("attack.forward_distance", 1.0)
	v.SetDefault("attack.lock_prediction", true)

	v.SetDefault("powerplay.duration", "5s")
	v.SetDefault("powerplay.cooldown", "10s")
	v.SetDefault("powerplay.boss_vulnerability", 1.75)
	v.SetDefault("powerplay.player_damage_bonus", 0.35)
	v.SetDefault("powerplay.speed_bonus", 0.20)

	v.SetDefault("flow.advance_mode", "auto")
	v.SetDefault("flow.correct_advance_delay", "750ms")
	v.SetDefault("flow.timeout_advance_delay", "750ms")
	v.SetDefault("flow.manual_prompt_delay", "100ms")
	v.SetDefault("flow.wrong_answer_timeout", "2s")
	v.SetDefault("flow.manual_wrong_answer_timeout", "3s")
	v.SetDefault("flow.wrong_answer_grace", "250ms")
	v.SetDefault("flow.manual_wrong_answer_grace", "100ms")
	v.SetDefault("flow.safe_zone_poll", "100ms")
	v.SetDefault("flow.perfect_dodge_bonus", 0.1)
	v.SetDefault("flow.max_combo", 10)
	v.SetDefault("flow.freeze_duration", "3s")

	v.SetDefault("formula.base_easy", 8.0)
	v.SetDefault("formula.base_medium", 12.0)
	v.SetDefault("formula.base_hard", 18.0)
	v.SetDefault("formula.combo_bonus", 0.15)
	v.SetDefault("formula.max_multiplier", 2.0)
	v.SetDefault("formula.time_bonus_max", 0.5)

	v.SetDefault("player.max_hearts", 5)
	v.SetDefault("player.move_speed", 6.0)
	v.SetDefault("player.dash_speed", 12.0)
	v.SetDefault("player.dash_duration", "150ms")
	v.SetDefault("player.dash_cooldown", "1200ms")
	v.SetDefault("player.attack_damage", 10)
	v.SetDefault("player.attack_cooldown", "500ms")
	v.SetDefault("player.attack_window", "200ms")
	v.SetDefault("player.max_charges", 3)
	v.SetDefault("player.focus_max", 3)
	v.SetDefault("player.focus_start", 2)
	v.SetDefault("player.correct_unfreeze", "400ms")
	v.SetDefault("player.ready_debounce", "500ms")

	v.SetDefault("arena.width", 20.0)
	v.SetDefault("arena.height", 12.0)
	v.SetDefault("arena.station_x", 3.0)
	v.SetDefault("arena.station_y", 6.0)
	v.SetDefault("arena.station_size", 2.0)
	v.SetDefault("arena.eject_margin", 1.0)
	v.SetDefault("arena.player_radius", 0.4)
	v.SetDefault("arena.boss_radius", 0.8)
	v.SetDefault("arena.boss_x", 12.0)
	v.SetDefault("arena.boss_y", 6.0)
	v.SetDefault("arena.boss_hit_radius", 0.7)
	v.SetDefault("arena.player_hit_reach", 0.8)
}
