package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"

	"enduro-clone/internal/agent"
	"enduro-clone/internal/config"
	"enduro-clone/internal/daycycle"
	"enduro-clone/internal/env"
	"enduro-clone/internal/logging"
	"enduro-clone/internal/road"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

const (
	WindowScale       = 4   // window pixels per simulation pixel
	FastTicksPerFrame = 500 // ticks per frame in fast AI mode
	BlinkTicks        = 4   // player blink half-period while recovering
)

// Sky and ground per weather phase.
var phaseColors = map[daycycle.Phase]struct{ Sky, Ground color.RGBA }{
	daycycle.PhaseDay:   {color.RGBA{45, 50, 184, 255}, color.RGBA{0, 68, 0, 255}},
	daycycle.PhaseSnow:  {color.RGBA{45, 50, 184, 255}, color.RGBA{236, 236, 236, 255}},
	daycycle.PhaseDusk:  {color.RGBA{111, 111, 111, 255}, color.RGBA{0, 68, 0, 255}},
	daycycle.PhaseNight: {color.RGBA{0, 0, 0, 255}, color.RGBA{0, 0, 0, 255}},
	daycycle.PhaseFog:   {color.RGBA{142, 142, 142, 255}, color.RGBA{80, 80, 80, 255}},
	daycycle.PhaseDawn:  {color.RGBA{228, 111, 111, 255}, color.RGBA{0, 68, 0, 255}},
}

var (
	ColorRoad       = color.RGBA{111, 111, 111, 255}
	ColorRoadNight  = color.RGBA{20, 20, 20, 255}
	ColorEdge       = color.RGBA{236, 236, 236, 255}
	ColorPlayer     = color.RGBA{210, 164, 74, 255}
	ColorEnemy      = color.RGBA{200, 72, 72, 255}
	ColorEnemyLight = color.RGBA{255, 255, 160, 255} // tail lights at night
	ColorHUD        = color.RGBA{0, 0, 0, 255}
)

// ============================================================================

type Game struct {
	Env    *env.Env
	Agent  *agent.AgentQTable
	Obs    env.Observation
	State  agent.State
	AIMode bool
	Fast   bool

	geom road.Geometry
	log  zerolog.Logger
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.AIMode = !g.AIMode
		g.log.Info().Bool("ai", g.AIMode).Msg("control mode changed")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Fast = !g.Fast
	}

	if g.Obs.Terminal {
		// AI restarts on its own, humans press R.
		if g.AIMode || inpututil.IsKeyJustPressed(ebiten.KeyR) {
			st := g.Env.Stats()
			g.log.Info().
				Int("score", st.Score).
				Int("days", st.DaysCompleted).
				Float64("return", st.Return).
				Msg("episode finished")
			g.reset()
		}
		return nil
	}

	ticks := 1
	if g.AIMode && g.Fast {
		ticks = FastTicksPerFrame
	}
	for i := 0; i < ticks && !g.Obs.Terminal; i++ {
		g.step()
	}
	return nil
}

func (g *Game) reset() {
	g.Obs = g.Env.Reset()
	g.State = agent.DiscretizeState(g.Obs)
}

func (g *Game) step() {
	if !g.AIMode {
		g.Obs, _, _ = g.Env.Step(humanAction())
		g.State = agent.DiscretizeState(g.Obs)
		return
	}

	action := g.Agent.SelectAction(g.State)
	obs, reward, done := g.Env.Step(env.Discrete[action])
	next := agent.DiscretizeState(obs)
	g.Agent.Learn(g.State, action, reward, next, done)
	g.Obs, g.State = obs, next
}

// humanAction maps held keys to one action. Unmapped keys are ignored.
func humanAction() env.Action {
	var a env.Action
	if ebiten.IsKeyPressed(ebiten.KeyUp) || ebiten.IsKeyPressed(ebiten.KeySpace) {
		a |= env.Accelerate
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		a |= env.Brake
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		a |= env.Left
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		a |= env.Right
	}
	return a
}

func (g *Game) Draw(screen *ebiten.Image) {
	obs := g.Obs
	phase := obs.Day.Phase
	pc := phaseColors[phase]
	night := phase == daycycle.PhaseNight

	// Sky and ground
	screen.Fill(pc.Sky)
	vector.FillRect(screen, 0, float32(g.geom.HorizonY), float32(g.geom.ScreenWidth),
		float32(g.geom.BottomY-g.geom.HorizonY), pc.Ground, false)

	// Road, one scanline per row from the vanishing point down
	roadColor := ColorRoad
	if night {
		roadColor = ColorRoadNight
	}
	for y := obs.Road.VanishY; y < int(g.geom.BottomY); y++ {
		l, r := g.geom.Edges(float64(y), obs.Road.Segment)
		fy := float32(y) + 0.5
		vector.StrokeLine(screen, float32(l), fy, float32(r+1), fy, 1, roadColor, false)
		vector.FillRect(screen, float32(l), float32(y), 1, 1, ColorEdge, false)
		vector.FillRect(screen, float32(r), float32(y), 1, 1, ColorEdge, false)
	}

	// Enemies, farthest first so nearer cars overlap them
	for i := len(obs.Enemies) - 1; i >= 0; i-- {
		e := obs.Enemies[i]
		if !e.Visible || e.Y > g.geom.BottomY+g.geom.CarHeight/2 {
			continue
		}
		if night {
			g.drawTailLights(screen, e.X, e.Y)
			continue
		}
		g.drawCar(screen, e.X, e.Y, ColorEnemy)
	}

	// Player blinks while recovering
	if obs.Vehicle.CrashTicks == 0 || (obs.Tick/BlinkTicks)%2 == 0 {
		g.drawCar(screen, obs.Vehicle.X, obs.Vehicle.Y, ColorPlayer)
	}

	g.drawHUD(screen, obs)
}

func (g *Game) drawCar(screen *ebiten.Image, x, y float64, c color.Color) {
	w, h := g.geom.CarWidth, g.geom.CarHeight
	vector.FillRect(screen, float32(x-w/2), float32(y-h/2), float32(w), float32(h), c, false)
}

func (g *Game) drawTailLights(screen *ebiten.Image, x, y float64) {
	w, h := g.geom.CarWidth, g.geom.CarHeight
	top := float32(y + h/2 - 2)
	vector.FillRect(screen, float32(x-w/2), top, 2, 2, ColorEnemyLight, false)
	vector.FillRect(screen, float32(x+w/2-2), top, 2, 2, ColorEnemyLight, false)
}

func (g *Game) drawHUD(screen *ebiten.Image, obs env.Observation) {
	top := float32(g.geom.BottomY)
	vector.FillRect(screen, 0, top, float32(g.geom.ScreenWidth), float32(screen.Bounds().Dy())-top, ColorHUD, false)

	left := obs.Day.Required - obs.Day.Passed
	if left < 0 {
		left = 0
	}
	msg := fmt.Sprintf("%06d  DAY %d\n", obs.Score, obs.Day.Day)
	switch obs.Day.State {
	case daycycle.Victory:
		msg += "VICTORY!\n"
	case daycycle.Terminal:
		msg += "GAME OVER\n"
	default:
		msg += fmt.Sprintf("CARS %3d  G%d\n", left, obs.Vehicle.Gear)
	}

	mode := "HUMAN"
	if g.AIMode {
		mode = fmt.Sprintf("AI e=%.2f", g.Agent.Epsilon())
	}
	if obs.Terminal && !g.AIMode {
		mode = "R: RESTART"
	}
	msg += mode

	ebitenutil.DebugPrintAt(screen, msg, 2, int(top)+1)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	cfg := g.Env.Config()
	return cfg.ScreenWidth, cfg.ScreenHeight
}

func main() {
	configDir := flag.String("config", ".", "directory containing enduro.yaml")
	aiMode := flag.Bool("ai", false, "start with the Q-learning agent driving")
	flag.Parse()

	settings, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(settings.LogLevel, os.Stderr)

	table, err := settings.Table()
	if err != nil {
		log.Fatal().Err(err).Str("path", settings.DifficultyFile).Msg("Failed to load difficulty table")
	}

	e, err := env.New(settings.Sim,
		env.WithLogger(log),
		env.WithTable(table),
		env.WithWeights(settings.Reward),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build environment")
	}

	tr := settings.Train
	ag := agent.NewAgent(agent.Params{
		Alpha:      tr.Alpha,
		Gamma:      tr.Gamma,
		Epsilon:    tr.Epsilon,
		MinEpsilon: tr.MinEpsilon,
		Decay:      tr.EpsilonDecay,
		Seed:       tr.AgentSeed,
	})

	game := &Game{
		Env:    e,
		Agent:  ag,
		AIMode: *aiMode,
		geom:   e.Geometry(),
		log:    log,
	}
	game.reset()

	cfg := e.Config()
	ebiten.SetWindowSize(cfg.ScreenWidth*WindowScale, cfg.ScreenHeight*WindowScale)
	ebiten.SetWindowTitle("Enduro")
	ebiten.SetTPS(cfg.TickRate)

	log.Info().Uint64("seed", cfg.Seed).Bool("ai", game.AIMode).Msg("Starting game")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal().Err(err).Msg("Game loop failed")
	}
}
