package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taleweaver/internal/audio/music"
	"taleweaver/internal/audio/player"
	"taleweaver/internal/audio/preview"
	"taleweaver/internal/audio/queue"
	"taleweaver/internal/audio/synth"
	"taleweaver/internal/audio/voices"
	"taleweaver/internal/cli/scheme/colours"
	"taleweaver/internal/config"
	"taleweaver/internal/domain/premise"
	"taleweaver/internal/domain/story"
	"taleweaver/internal/story/gen"
	"taleweaver/internal/story/teller"
)

type app struct {
	cfg      *config.Config
	out      *player.Output
	premises *premise.Catalog
	ctx      context.Context
	cancel   context.CancelFunc
}

func main() {
	config.SetDefaults()
	cfg := config.Load()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &app{
		cfg:      cfg,
		out:      player.NewOutput(),
		premises: premise.NewCatalog(),
		ctx:      ctx,
		cancel:   cancel,
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.cancel()
		fmt.Println("\n" + colours.Warning.Sprint("👋 The story will wait for you. Goodbye!"))
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:   "taleweaver",
		Short: "🧵 Interactive stories, spoken aloud",
		Long: `
┌─────────────────────────────────────┐
│  🧵 Welcome to TaleWeaver! 📖      │
│  Interactive stories where every    │
│  choice is yours — read aloud ✨   │
└─────────────────────────────────────┘

TaleWeaver generates branching stories scene by scene and narrates
them with distinct character voices over background music. 🌙
		`,
		Run: func(cmd *cobra.Command, args []string) {
			a.showWelcome()
		},
	}

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "🎭 Start an interactive story",
		Long:  "Generate and narrate a branching story, one decision at a time",
		Run:   a.runPlay,
	}
	playCmd.Flags().StringP("name", "n", "Alex", "Main character's name")
	playCmd.Flags().StringP("age", "a", "25", "Main character's age")
	playCmd.Flags().StringP("background", "b", "a curious traveler", "Main character's background")
	playCmd.Flags().StringP("premise", "p", "", "Premise ID (see 'taleweaver premises')")
	playCmd.Flags().Bool("no-music", false, "Disable background music")

	premisesCmd := &cobra.Command{
		Use:   "premises",
		Short: "📚 List story premises",
		Long:  "Display the built-in premises you can start a story from",
		Run:   a.listPremises,
	}
	premisesCmd.Flags().StringP("genre", "g", "", "Filter by genre")

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 Manage character voices",
		Long:  "List configured character voices and audition voice samples",
	}
	voicesListCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List configured voices",
		Run:   a.listVoices,
	}
	voicesPreviewCmd := &cobra.Command{
		Use:   "preview [voice-name] [voice-id]",
		Short: "🔊 Play a voice sample",
		Long:  "Play the pre-recorded sample clip for a voice",
		Args:  cobra.ExactArgs(2),
		Run:   a.runPreview,
	}
	voicesCmd.AddCommand(voicesListCmd, voicesPreviewCmd)

	musicCmd := &cobra.Command{
		Use:   "music",
		Short: "🎵 Play the background music on its own",
		Long:  "Loop the configured background music until interrupted",
		Run:   a.runMusic,
	}
	musicCmd.Flags().Float64("volume", cfg.MusicVolume, "Playback volume (0..1)")

	rootCmd.AddCommand(playCmd, premisesCmd, voicesCmd, musicCmd)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) showWelcome() {
	fmt.Println()
	colours.Title.Println("🧵 Welcome to TaleWeaver! 🧵")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • taleweaver play            - Start an interactive story")
	fmt.Println("  • taleweaver premises        - Browse story premises")
	fmt.Println("  • taleweaver voices list     - Show configured voices")
	fmt.Println("  • taleweaver voices preview  - Audition a voice sample")
	fmt.Println()
	colours.Prompt.Println("✨ Ready to weave a tale? ✨")
}

func (a *app) runPlay(cmd *cobra.Command, args []string) {
	if err := a.out.Unlock(); err != nil {
		colours.Error.Printf("❌ Audio device unavailable: %v\n", err)
		return
	}

	registry, err := voices.NewRegistry(a.cfg.NarratorVoiceID)
	if err != nil {
		colours.Error.Println("❌ No narrator voice configured. Set ELEVENLABS_VOICE_ID_NARRATOR.")
		return
	}
	registry.Configure(a.cfg.Voices)

	synthesizer, err := synth.New(a.ctx, synth.Config{
		Backend:      synth.Backend(a.cfg.TTSBackend),
		APIKey:       a.cfg.TTSAPIKey,
		BaseURL:      a.cfg.TTSBaseURL,
		ModelID:      a.cfg.TTSModelID,
		LanguageCode: a.cfg.GoogleTTSLanguage,
	})
	if err != nil {
		colours.Error.Printf("❌ Speech synthesis unavailable: %v\n", err)
		return
	}

	generator, err := gen.NewClient(gen.Config{
		APIKey:      a.cfg.GenerationAPIKey,
		BaseURL:     a.cfg.GenerationBaseURL,
		Model:       a.cfg.GenerationModel,
		Temperature: a.cfg.GenerationTemperature,
		MaxTokens:   a.cfg.GenerationMaxTokens,
	})
	if err != nil {
		colours.Error.Println("❌ Story generation unavailable. Set OPENAI_API_KEY.")
		return
	}

	var bg *music.Channel
	if noMusic, _ := cmd.Flags().GetBool("no-music"); !noMusic {
		bg = music.NewChannel(a.out, a.cfg.MusicFile, a.cfg.MusicVolume, a.cfg.FFTSize)
		defer bg.Close()
	}

	params, ok := a.buildParams(cmd)
	if !ok {
		return
	}

	narrator := player.NewPlayer(a.out, a.cfg.NarrationVolume)
	defer narrator.Close()

	t := teller.New(registry, synthesizer, narrator, generator, bg, queue.Options{
		MaxRetries:        a.cfg.QueueMaxRetries,
		RetryDelay:        a.cfg.QueueRetryDelay,
		BackoffMultiplier: a.cfg.QueueBackoffMultiplier,
		PacingDelay:       a.cfg.QueuePacingDelay,
	})

	if err := t.RunSession(a.ctx, params); err != nil {
		colours.Error.Printf("❌ %v\n", err)
	}
}

// buildParams resolves the story parameters from flags, prompting for a
// premise when none was given.
func (a *app) buildParams(cmd *cobra.Command) (story.Params, bool) {
	name, _ := cmd.Flags().GetString("name")
	age, _ := cmd.Flags().GetString("age")
	background, _ := cmd.Flags().GetString("background")
	premiseID, _ := cmd.Flags().GetString("premise")

	var chosen *premise.Premise
	if premiseID != "" {
		for _, p := range a.premises.ByGenre("") {
			if p.ID == premiseID {
				chosen = &p
				break
			}
		}
		if chosen == nil {
			colours.Error.Printf("❌ Premise '%s' not found! See 'taleweaver premises'.\n", premiseID)
			return story.Params{}, false
		}
	} else {
		chosen = a.promptPremise()
		if chosen == nil {
			return story.Params{}, false
		}
	}

	return story.Params{
		CharacterName:       name,
		CharacterAge:        age,
		CharacterBackground: background,
		Genre:               chosen.Genre,
		Premise:             chosen.Description,
	}, true
}

func (a *app) promptPremise() *premise.Premise {
	all := a.premises.ByGenre("")

	fmt.Println()
	colours.Title.Println("📚 Choose Your Story! 📚")
	fmt.Println()
	for i, p := range all {
		fmt.Printf("%d. ", i+1)
		colours.Title.Printf("%s", p.Title)
		fmt.Printf(" (%s)\n", p.Genre)
		colours.Info.Printf("   💡 %s\n", p.Description)
	}

	fmt.Println()
	colours.Prompt.Print("🌟 Enter the number of your premise (or 'q' to quit): ")

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "q" || input == "quit" {
		colours.Warning.Println("👋 Maybe next time!")
		return nil
	}
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(all) {
		colours.Error.Println("❌ Invalid selection! Please try again.")
		return nil
	}
	return &all[choice-1]
}

func (a *app) listPremises(cmd *cobra.Command, args []string) {
	genre, _ := cmd.Flags().GetString("genre")

	fmt.Println()
	colours.Title.Println("📚 Story Premises 📚")
	fmt.Println()

	premises := a.premises.ByGenre(genre)

	for _, p := range premises {
		colours.Title.Printf("%s", p.Title)
		fmt.Printf(" (%s)\n", p.Genre)
		fmt.Printf("   💡 %s\n", p.Description)
		colours.Info.Printf("   ID: %s\n", p.ID)
		fmt.Println()
	}

	if len(premises) == 0 {
		colours.Warning.Println("🔍 No premises found for that genre.")
	} else {
		colours.Success.Printf("✨ %d premises ready to become stories ✨\n", len(premises))
	}
}

func (a *app) listVoices(cmd *cobra.Command, args []string) {
	registry, err := voices.NewRegistry(a.cfg.NarratorVoiceID)
	if err != nil {
		colours.Error.Println("❌ No narrator voice configured. Set ELEVENLABS_VOICE_ID_NARRATOR.")
		return
	}
	registry.Configure(a.cfg.Voices)

	fmt.Println()
	colours.Title.Println("🎤 Configured Voices 🎤")
	fmt.Println()
	for name, id := range registry.Voices() {
		colours.Character.Printf("%-20s", name)
		fmt.Printf(" %s\n", id)
	}
}

func (a *app) runPreview(cmd *cobra.Command, args []string) {
	voiceName, voiceID := args[0], args[1]

	if err := a.out.Unlock(); err != nil {
		colours.Error.Printf("❌ Audio device unavailable: %v\n", err)
		return
	}

	p, err := preview.New(a.out, a.cfg.PreviewDir, a.cfg.PreviewCacheSize)
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}

	colours.Info.Printf("🔊 Playing sample for %s...\n", voiceName)
	if err := p.PlayPreview(a.ctx, voiceName, voiceID, "preview"); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Println("✅ Done!")
}

func (a *app) runMusic(cmd *cobra.Command, args []string) {
	if err := a.out.Unlock(); err != nil {
		colours.Error.Printf("❌ Audio device unavailable: %v\n", err)
		return
	}

	volume, _ := cmd.Flags().GetFloat64("volume")
	ch := music.NewChannel(a.out, a.cfg.MusicFile, volume, a.cfg.FFTSize)
	defer ch.Close()

	if err := ch.Play(); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	colours.Success.Printf("🎵 Looping %s — press Ctrl+C to stop\n", a.cfg.MusicFile)
	<-a.ctx.Done()
}

func init() {
	viper.SetConfigName("taleweaver")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.taleweaver")
	viper.AddConfigPath(".")
	viper.ReadInConfig()
}
