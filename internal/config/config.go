package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration, materialized from viper.
type Config struct {
	// Generation API (OpenAI-compatible chat completions)
	GenerationAPIKey      string
	GenerationBaseURL     string
	GenerationModel       string
	GenerationTemperature float64
	GenerationMaxTokens   int

	// Text-to-speech
	TTSBackend        string
	TTSAPIKey         string
	TTSBaseURL        string
	TTSModelID        string
	NarratorVoiceID   string
	GoogleTTSLanguage string

	// Narration queue
	QueueMaxRetries        int
	QueueRetryDelay        time.Duration
	QueueBackoffMultiplier float64
	QueuePacingDelay       time.Duration

	// Audio output
	NarrationVolume float64
	MusicVolume     float64
	MusicFile       string
	FFTSize         int

	// Voice previews
	PreviewDir       string
	PreviewCacheSize int

	// Character name to voice id, from the config file.
	Voices map[string]string

	LogLevel string
}

// SetDefaults registers defaults for every tunable. Must run once at startup
// before Load.
func SetDefaults() {
	viper.SetDefault("generation.base_url", "https://api.openai.com/v1")
	viper.SetDefault("generation.model", "gpt-4o-mini")
	viper.SetDefault("generation.temperature", 0.7)
	viper.SetDefault("generation.max_tokens", 1000)

	viper.SetDefault("tts.backend", "elevenlabs")
	viper.SetDefault("tts.base_url", "https://api.elevenlabs.io/v1")
	viper.SetDefault("tts.model_id", "eleven_flash_v2_5")
	viper.SetDefault("tts.google_language", "en-US")

	viper.SetDefault("queue.max_retries", 3)
	viper.SetDefault("queue.retry_delay", "2s")
	viper.SetDefault("queue.backoff_multiplier", 1.0)
	viper.SetDefault("queue.pacing_delay", "500ms")

	viper.SetDefault("audio.narration_volume", 0.7)
	viper.SetDefault("audio.music_volume", 0.3)
	viper.SetDefault("audio.music_file", "assets/audio/background-music.mp3")
	viper.SetDefault("audio.fft_size", 256)

	viper.SetDefault("preview.dir", "assets/audio/voices")
	viper.SetDefault("preview.cache_size", 32)

	viper.SetDefault("log.level", "info")

	// Credentials and voice identity come from the environment only.
	viper.BindEnv("generation.api_key", "OPENAI_API_KEY")
	viper.BindEnv("generation.base_url", "OPENAI_API_URL")
	viper.BindEnv("tts.api_key", "ELEVENLABS_API_KEY")
	viper.BindEnv("tts.base_url", "ELEVENLABS_API_URL")
	viper.BindEnv("tts.narrator_voice_id", "ELEVENLABS_VOICE_ID_NARRATOR")
	viper.BindEnv("tts.backend", "TALEWEAVER_TTS_BACKEND")
	viper.BindEnv("log.level", "TALEWEAVER_LOG_LEVEL")
}

// Load materializes the active viper state into a Config.
func Load() *Config {
	return &Config{
		GenerationAPIKey:      viper.GetString("generation.api_key"),
		GenerationBaseURL:     viper.GetString("generation.base_url"),
		GenerationModel:       viper.GetString("generation.model"),
		GenerationTemperature: viper.GetFloat64("generation.temperature"),
		GenerationMaxTokens:   viper.GetInt("generation.max_tokens"),

		TTSBackend:        viper.GetString("tts.backend"),
		TTSAPIKey:         viper.GetString("tts.api_key"),
		TTSBaseURL:        viper.GetString("tts.base_url"),
		TTSModelID:        viper.GetString("tts.model_id"),
		NarratorVoiceID:   viper.GetString("tts.narrator_voice_id"),
		GoogleTTSLanguage: viper.GetString("tts.google_language"),

		QueueMaxRetries:        viper.GetInt("queue.max_retries"),
		QueueRetryDelay:        viper.GetDuration("queue.retry_delay"),
		QueueBackoffMultiplier: viper.GetFloat64("queue.backoff_multiplier"),
		QueuePacingDelay:       viper.GetDuration("queue.pacing_delay"),

		NarrationVolume: viper.GetFloat64("audio.narration_volume"),
		MusicVolume:     viper.GetFloat64("audio.music_volume"),
		MusicFile:       viper.GetString("audio.music_file"),
		FFTSize:         viper.GetInt("audio.fft_size"),

		PreviewDir:       viper.GetString("preview.dir"),
		PreviewCacheSize: viper.GetInt("preview.cache_size"),

		Voices: viper.GetStringMapString("voices"),

		LogLevel: viper.GetString("log.level"),
	}
}
