package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/arena"
	"github.com/cory-johannsen/quizboss/internal/config"
	"github.com/cory-johannsen/quizboss/internal/game/boss"
	"github.com/cory-johannsen/quizboss/internal/game/clock"
	"github.com/cory-johannsen/quizboss/internal/game/combat"
	"github.com/cory-johannsen/quizboss/internal/game/dice"
	"github.com/cory-johannsen/quizboss/internal/game/player"
	"github.com/cory-johannsen/quizboss/internal/game/powerplay"
	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/game/quiz"
	"github.com/cory-johannsen/quizboss/internal/game/safezone"
	"github.com/cory-johannsen/quizboss/internal/game/signal"
	"github.com/cory-johannsen/quizboss/internal/scripting"
)

const (
	// maxCatchUpSteps bounds the physics steps run for one long frame.
	maxCatchUpSteps = 5
	// maxFrame caps the game time one wall-clock frame may advance.
	maxFrame = 250 * time.Millisecond
)

const (
	ownerPlayer = "player"
	ownerBoss   = "boss"
)

var (
	// ErrInputFull is returned by Send when the session is not keeping up.
	ErrInputFull = errors.New("session input buffer full")
	// ErrClosed is returned by Send once the session has ended.
	ErrClosed = errors.New("session closed")
	// ErrNoPack is returned by New without a question pack.
	ErrNoPack = errors.New("session needs a question pack")
)

// Options configures New.
type Options struct {
	// ID identifies the session; New does not generate one.
	ID     string
	Pack   *question.Pack
	Config config.Config
	// Scripts supplies encounter scripts. nil disables scripting.
	Scripts *scripting.Manager
	// Source drives the 50/50 lifeline and the patrol start angle. nil uses crypto/rand.
	Source dice.Source
	Logger *zap.Logger
}

// Session is one boss fight: every game component wired onto one scheduler
// and one signal bus. Tick and Apply must be called from a single
// goroutine, which Run provides; Send, Snapshot, Stop and Done are safe
// for concurrent use.
type Session struct {
	id      string
	pack    *question.Pack
	cfg     config.Config
	logger  *zap.Logger
	started time.Time

	sched *clock.Scheduler
	bus   *signal.Bus
	subs  signal.Group
	fixed *clock.FixedStep

	arena     *arena.Arena
	gate      *safezone.Gate
	boss      *boss.Controller
	bossSeq   *combat.Sequencer
	patrol    *boss.Patrol
	ctrl      *player.Controller
	playerSeq *combat.Sequencer
	health    *player.Health
	focus     *player.Focus
	attacker  *player.Attacker
	guard     *player.Guard
	window    *powerplay.Window
	flow      *quiz.Flow
	lifelines *quiz.Lifelines
	match     *Match
	encounter *scripting.Encounter

	hitStop time.Duration
	homing  bool
	halted  bool

	input     chan Command
	outbox    *Outbox
	snapshot  atomic.Pointer[Snapshot]
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
}

// New wires a session for opts.Pack. The match waits in StateInit until the
// player readies up in the station.
//
// Precondition: opts.Config must be valid.
// Postcondition: Returns a session that has not started running, or an error
// when the pack is missing or an encounter script fails to load.
func New(opts Options) (*Session, error) {
	if opts.Pack == nil {
		return nil, ErrNoPack
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	src := opts.Source
	if src == nil {
		src = dice.NewCryptoSource()
	}
	cfg := opts.Config

	s := &Session{
		id:      opts.ID,
		pack:    opts.Pack,
		cfg:     cfg,
		logger:  logger,
		started: time.Now(),
		sched:   clock.NewScheduler(),
		bus:     signal.NewBus(),
		fixed:   clock.NewFixedStep(time.Second/time.Duration(max(cfg.Session.PhysicsRate, 1)), maxCatchUpSteps),
		input:   make(chan Command, max(cfg.Session.InputBuffer, 1)),
		outbox:  NewOutbox(0),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	s.arena = arena.New(cfg.Arena, logger)
	s.gate = safezone.NewGate(cfg.Player.ReadyDebounce, s.sched, s.bus, s.arena, logger)
	s.arena.SetOccupancy(s.gate)

	s.health = player.NewHealth(cfg.Player.MaxHearts, s.bus)
	s.ctrl = player.NewController(player.ControllerConfig{
		MoveSpeed:    cfg.Player.MoveSpeed,
		DashSpeed:    cfg.Player.DashSpeed,
		DashDuration: cfg.Player.DashDuration,
		DashCooldown: cfg.Player.DashCooldown,
	}, s.sched, s.bus, s.arena.Player())

	s.wireBossAttack()
	s.boss = boss.NewController(boss.Config{
		MaxHP:           cfg.Boss.MaxHP,
		TransitionDelay: cfg.Boss.TransitionDelay,
		WrongTelegraph:  cfg.Boss.WrongTelegraph,
		PerfectWindow:   cfg.Boss.PerfectWindow,
		PunishDamage:    cfg.Boss.PunishDamage,
	}, s.sched, s.bus, s.bossSeq, logger)
	s.arena.RegisterBoss(combat.Collider{ID: "boss-body", Owner: ownerBoss, Damageable: s.boss})
	s.arena.RegisterPlayer(combat.Collider{ID: "player-body", Owner: ownerPlayer, Hurtbox: &combat.Hurtbox{Target: s.health}})
	s.patrol = boss.NewPatrol(boss.PatrolConfig{
		Enabled: cfg.Boss.PatrolDuringQuestion,
		Radius:  cfg.Boss.PatrolRadius,
		Speed:   cfg.Boss.PatrolSpeed,
		Range:   cfg.Boss.AttackRange,
	}, dice.Angle(src))

	s.wirePlayerAttack()
	s.window = powerplay.NewWindow(powerplay.Config{
		Duration:          cfg.PowerPlay.Duration,
		Cooldown:          cfg.PowerPlay.Cooldown,
		BossVulnerability: cfg.PowerPlay.BossVulnerability,
		PlayerDamageBonus: cfg.PowerPlay.PlayerDamageBonus,
		SpeedBonus:        cfg.PowerPlay.SpeedBonus,
	}, s.sched, s.bus, s.ctrl, logger)
	s.attacker = player.NewAttacker(player.AttackerConfig{
		Damage:     cfg.Player.AttackDamage,
		Cooldown:   cfg.Player.AttackCooldown,
		MaxCharges: cfg.Player.MaxCharges,
	}, s.sched, s.playerSeq, s.window)
	s.guard = player.NewGuard(cfg.Player.CorrectUnfreeze, s.sched, s.bus, s.gate, s.health, s.ctrl, s.attacker)
	s.focus = player.NewFocus(cfg.Player.FocusMax, cfg.Player.FocusStart)

	s.flow = quiz.NewFlow(quiz.Config{
		Mode:                     quiz.ParseAdvanceMode(cfg.Flow.AdvanceMode),
		PowerPlayDuration:        cfg.PowerPlay.Duration,
		CorrectAdvanceDelay:      cfg.Flow.CorrectAdvanceDelay,
		TimeoutAdvanceDelay:      cfg.Flow.TimeoutAdvanceDelay,
		ManualPromptDelay:        cfg.Flow.ManualPromptDelay,
		WrongAnswerTimeout:       cfg.Flow.WrongAnswerTimeout,
		ManualWrongAnswerTimeout: cfg.Flow.ManualWrongAnswerTimeout,
		WrongAnswerGrace:         cfg.Flow.WrongAnswerGrace,
		ManualWrongAnswerGrace:   cfg.Flow.ManualWrongAnswerGrace,
		SafeZonePoll:             cfg.Flow.SafeZonePoll,
		MaxCombo:                 cfg.Flow.MaxCombo,
		PerfectDodgeBonus:        cfg.Flow.PerfectDodgeBonus,
	}, quiz.Deps{
		Sched:     s.sched,
		Bus:       s.bus,
		Pack:      s.pack,
		Gate:      s.gate,
		Boss:      s.boss,
		PowerPlay: s.window,
		Formula: combat.Formula{
			BaseEasy:      cfg.Formula.BaseEasy,
			BaseMedium:    cfg.Formula.BaseMedium,
			BaseHard:      cfg.Formula.BaseHard,
			ComboBonus:    cfg.Formula.ComboBonus,
			MaxMultiplier: cfg.Formula.MaxMultiplier,
			TimeBonusMax:  cfg.Formula.TimeBonusMax,
		},
		Logger: logger,
	})
	s.lifelines = quiz.NewLifelines(s.flow, s.focus, src, cfg.Flow.FreezeDuration)
	s.match = NewMatch(s.bus, logger)

	s.subscribe()
	s.subscribeNotices()

	if opts.Scripts != nil {
		enc, err := opts.Scripts.NewEncounter(s.pack.Name(), scriptHost{s})
		if err != nil {
			s.halt()
			return nil, fmt.Errorf("session %s: %w", s.id, err)
		}
		s.encounter = enc
		s.subscribeScripts()
	}

	s.publishSnapshot()
	return s, nil
}

// wireBossAttack builds the boss punish attack: a hit volume around the
// boss that only damages player hurtboxes.
func (s *Session) wireBossAttack() {
	a := s.cfg.Attack
	vol := s.arena.NewVolume(s.arena.Boss(), s.cfg.Arena.BossHitRadius, 0)
	hb := combat.NewHitbox(combat.HitboxConfig{
		Owner:          ownerBoss,
		Targets:        combat.MaskOf(combat.LayerPlayer),
		RequireHurtbox: true,
	}, vol, s.sched)
	vol.OnEnter(func(c combat.Collider) { hb.Touch(c) })
	s.bossSeq = combat.NewSequencer(combat.SequencerConfig{
		Windup:              a.Windup,
		Active:              a.Active,
		Drive:               combat.ParseDriveMode(a.Drive),
		MarkerTimeout:       a.Windup,
		AimAtTarget:         a.AimAtTarget,
		AngleOffset:         a.AngleOffsetDegrees * math.Pi / 180,
		AdvanceTowardTarget: a.AdvanceTowardTarget,
		ForwardDistance:     a.ForwardDistance,
		LockPrediction:      a.LockPrediction,
	}, hb, s.sched, s.arena.Boss())
	s.bossSeq.SetTarget(s.arena.Player())
}

// wirePlayerAttack builds the player's melee swing toward the boss.
func (s *Session) wirePlayerAttack() {
	vol := s.arena.NewVolume(s.arena.Player(), s.cfg.Arena.PlayerHitReach, 0)
	hb := combat.NewHitbox(combat.HitboxConfig{
		Owner:   ownerPlayer,
		Targets: combat.MaskOf(combat.LayerBoss),
	}, vol, s.sched)
	vol.OnEnter(func(c combat.Collider) { hb.Touch(c) })
	s.playerSeq = combat.NewSequencer(combat.SequencerConfig{
		Active:              s.cfg.Player.AttackWindow,
		Drive:               combat.DriveTimed,
		AimAtTarget:         true,
		AdvanceTowardTarget: true,
		ForwardDistance:     s.cfg.Arena.PlayerRadius,
	}, hb, s.sched, s.arena.Player())
	s.playerSeq.SetTarget(s.arena.Boss())
}

func (s *Session) subscribe() {
	bus := s.bus
	signal.On(&s.subs, &bus.GameStarted, func(signal.GameStarted) { s.flow.NextQuestion() })
	signal.On(&s.subs, &bus.GameWon, func(signal.GameWon) { s.halt() })
	signal.On(&s.subs, &bus.GameLost, func(signal.GameLost) { s.halt() })
	signal.On(&s.subs, &bus.PerfectDodgeSuccess, func(signal.PerfectDodgeSuccess) { s.focus.Gain(1) })
	signal.On(&s.subs, &bus.PowerPlayHitConfirmed, func(signal.PowerPlayHitConfirmed) {
		s.hitStop = s.cfg.Session.HitStop
	})
	signal.On(&s.subs, &bus.QuestionStarted, func(signal.QuestionStarted) {
		s.patrol.Begin(s.arena.Boss().Position(), s.arena.Player().Position())
	})
	signal.On(&s.subs, &bus.AnswerSubmitted, func(e signal.AnswerSubmitted) {
		s.stopPatrol()
		if e.Correct {
			s.attacker.AwardCharge()
		}
	})
	signal.On(&s.subs, &bus.QuestionTimeout, func(signal.QuestionTimeout) { s.stopPatrol() })
	signal.On(&s.subs, &bus.AnswerModeExited, func(signal.AnswerModeExited) { s.stopPatrol() })
}

func (s *Session) subscribeScripts() {
	bus := s.bus
	signal.On(&s.subs, &bus.BossPhaseChanged, func(e signal.BossPhaseChanged) {
		s.encounter.PhaseChanged(e.From, e.To)
	})
	signal.On(&s.subs, &bus.QuestionStarted, func(e signal.QuestionStarted) {
		s.encounter.QuestionStarted(e.Index+1, e.Question.Prompt, strings.ToLower(e.Question.Difficulty.String()))
	})
	signal.On(&s.subs, &bus.AnswerSubmitted, func(e signal.AnswerSubmitted) {
		if !e.Correct {
			s.encounter.WrongAnswer()
		}
	})
}

func (s *Session) stopPatrol() {
	s.patrol.Stop()
	s.arena.Boss().SetVelocity(cp.Vector{})
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Pack returns the question pack being played.
func (s *Session) Pack() *question.Pack { return s.pack }

// State returns the match state. Call it from the session goroutine only;
// other goroutines read Snapshot().State.
func (s *Session) State() State { return s.match.State() }

// Notices returns the narration channel. It is closed when the session ends.
func (s *Session) Notices() <-chan Notice { return s.outbox.Events() }

// Tick advances the fight by one frame of dt game time: fixed physics
// steps first, then timers, then the question countdown. Paused and
// finished matches do not advance. A confirmed Power Play hit holds game
// time still for the configured hit stop.
func (s *Session) Tick(dt time.Duration) {
	if dt <= 0 || s.halted {
		return
	}
	if st := s.match.State(); st != StateInit && st != StatePlaying {
		return
	}
	if s.hitStop > 0 {
		if dt <= s.hitStop {
			s.hitStop -= dt
			return
		}
		dt -= s.hitStop
		s.hitStop = 0
	}

	for range s.fixed.Accumulate(dt) {
		s.physicsStep(s.fixed.Step())
		if s.halted {
			return
		}
	}
	s.sched.Advance(dt)
	s.flow.Update(dt)
}

func (s *Session) physicsStep(step time.Duration) {
	if s.homing {
		s.steerHome()
	}
	s.ctrl.Step()

	bossBody := s.arena.Boss()
	if s.patrol.Active() {
		pos := bossBody.Position()
		next, ok := s.patrol.Step(pos, s.arena.Player().Position(), step)
		if ok {
			bossBody.SetVelocity(next.Sub(pos).Mult(1 / step.Seconds()))
		} else {
			bossBody.SetVelocity(cp.Vector{})
		}
	}

	s.arena.Step(step)
	s.bossSeq.Hitbox().Scan()
	s.playerSeq.Hitbox().Scan()
}

// steerHome walks the player toward the station until they touch it.
func (s *Session) steerHome() {
	if s.gate.Inside() {
		s.homing = false
		s.ctrl.SetInput(cp.Vector{})
		return
	}
	s.ctrl.SetInput(s.arena.StationCenter().Sub(s.arena.Player().Position()))
}

// Apply executes one command. Commands that do not fit the current state
// are rejected with a KindReject notice and change nothing.
//
// Postcondition: Returns whether the command took effect.
func (s *Session) Apply(cmd Command) bool {
	ok, reason := s.apply(cmd)
	if !ok {
		s.logger.Debug("command rejected", zap.Stringer("command", cmd.Kind), zap.String("reason", reason))
		s.notify(KindReject, reason)
	}
	return ok
}

func (s *Session) apply(cmd Command) (bool, string) {
	if s.halted || s.match.Over() {
		return false, "the fight is over"
	}
	switch cmd.Kind {
	case CmdPause:
		return s.match.Pause(), "nothing to pause"
	case CmdResume:
		return s.match.Resume(), "not paused"
	}
	state := s.match.State()
	if state == StatePaused {
		return false, "the game is paused"
	}

	switch cmd.Kind {
	case CmdReady:
		if !s.gate.ToggleReady() {
			return false, "step into the station first"
		}
		if state == StateInit && s.gate.Active() {
			s.match.Start()
		}
		return true, ""
	case CmdMove:
		s.homing = false
		s.ctrl.SetInput(cmd.Dir)
		return true, ""
	case CmdHome:
		s.homing = true
		return true, ""
	}

	if state != StatePlaying {
		return false, "ready up in the station to start"
	}
	switch cmd.Kind {
	case CmdAnswer:
		if !s.flow.QuestionActive() {
			return false, "no question is open"
		}
		s.flow.SubmitAnswer(cmd.Choice)
		return !s.flow.QuestionActive(), "that answer is not available"
	case CmdDodge:
		return s.ctrl.Dash(), "cannot dodge yet"
	case CmdAttack:
		return s.attacker.Attack(), "cannot attack yet"
	case CmdContinue:
		if !s.flow.AwaitingAdvance() {
			return false, "nothing to continue"
		}
		s.flow.Continue()
		return true, ""
	case CmdCancel:
		if s.attacker.Charges() == 0 {
			return false, "cancelling costs an attack charge"
		}
		if !s.flow.Cancel() {
			return false, "nothing to cancel"
		}
		s.attacker.TryConsumeCharge()
		return true, ""
	case CmdFiftyFifty:
		_, ok := s.lifelines.FiftyFifty()
		return ok, "50/50 is not available"
	case CmdFreeze:
		return s.lifelines.Freeze(), "freeze is not available"
	default:
		return false, "unknown command"
	}
}

// halt stops every component for good. Pending timers are dropped.
func (s *Session) halt() {
	if s.halted {
		return
	}
	s.halted = true
	s.flow.Halt()
	s.boss.Halt()
	s.window.Halt()
	s.bossSeq.Cancel()
	s.playerSeq.Cancel()
	s.guard.Close()
	s.gate.Close()
	s.patrol.Stop()
	s.sched.CancelAll()
}

// Send queues cmd for the session goroutine without blocking.
func (s *Session) Send(cmd Command) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.input <- cmd:
		return nil
	default:
		return ErrInputFull
	}
}

// Run drives the session until the match ends, Stop is called or ctx is
// cancelled. Frames advance by wall-clock time; input is applied between
// frames on the same goroutine.
//
// Postcondition: Notices() is closed and Done() is closed.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()
	rate := max(s.cfg.Session.FrameRate, 1)
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	s.logger.Info("session running")
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case cmd := <-s.input:
			s.Apply(cmd)
		case now := <-ticker.C:
			dt := min(now.Sub(last), maxFrame)
			last = now
			s.Tick(dt)
		}
		s.publishSnapshot()
		if s.match.Over() {
			s.logger.Info("session finished", zap.Stringer("state", s.match.State()))
			return nil
		}
	}
}

// Stop asks Run to return. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.halt()
		s.match.Close()
		s.subs.Close()
		if s.encounter != nil {
			s.encounter.Close()
		}
		s.publishSnapshot()
		s.outbox.Close()
		close(s.done)
	})
}

// scriptHost exposes the fight to encounter scripts.
type scriptHost struct{ s *Session }

func (h scriptHost) Say(msg string)        { h.s.notify(KindBoss, msg) }
func (h scriptHost) BossHP() (int, int)    { return h.s.boss.HP(), h.s.boss.MaxHP() }
func (h scriptHost) SetPunishDamage(n int) { h.s.boss.SetPunishDamage(n) }
