package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexshd/fairloop"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys. Nested keys map to FAIRLOOP_SYNTHETIC_VOTERS etc.
const (
	keyIterations = "iterations"
	keyTargetGini = "target_gini"
	keyAlpha      = "alpha"
	keyBeta       = "beta"
	keyCredits    = "credits_per_voter"
	keySeed       = "seed"
	keyVoters     = "synthetic.voters"
	keyScale      = "synthetic.scale"
	keyLogLevel   = "log_level"
)

func newViper() *viper.Viper {
	v := viper.New()

	defaults := fairloop.DefaultLoopConfig()
	v.SetDefault(keyIterations, defaults.Iterations)
	v.SetDefault(keyTargetGini, defaults.TargetGini)
	v.SetDefault(keyAlpha, defaults.Alpha)
	v.SetDefault(keyBeta, defaults.Beta)
	v.SetDefault(keyCredits, defaults.CreditsPerVoter)
	v.SetDefault(keySeed, defaults.Seed)
	v.SetDefault(keyVoters, defaults.SyntheticVoters)
	v.SetDefault(keyScale, defaults.SyntheticScale)
	v.SetDefault(keyLogLevel, "info")

	v.SetEnvPrefix("FAIRLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadConfig reads the config file. An explicit path must exist; otherwise
// fairloop.yaml is optional.
func loadConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fairloop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".config", "fairloop"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// loopFlags registers the loop parameters on a command. Values come from
// viper, so flags only need defaults for help output.
func loopFlags(cmd *cobra.Command) {
	defaults := fairloop.DefaultLoopConfig()
	f := cmd.Flags()
	f.Int("iterations", defaults.Iterations, "Maximum reflection rounds")
	f.Float64("target", defaults.TargetGini, "Stop once Gini drops below this value")
	f.Float64("alpha", defaults.Alpha, "Hallucination-reduction factor")
	f.Float64("beta", defaults.Beta, "Critique-alignment factor")
	f.Float64("credits", defaults.CreditsPerVoter, "Quadratic voting credits per voter")
	f.Uint64("seed", defaults.Seed, "Seed for the synthetic baseline")
	f.Int("voters", defaults.SyntheticVoters, "Synthetic baseline size")
	f.Float64("scale", defaults.SyntheticScale, "Mean vote weight of the synthetic baseline")
}

var flagKeys = map[string]string{
	"iterations": keyIterations,
	"target":     keyTargetGini,
	"alpha":      keyAlpha,
	"beta":       keyBeta,
	"credits":    keyCredits,
	"seed":       keySeed,
	"voters":     keyVoters,
	"scale":      keyScale,
}

// bindFlags binds the running command's flags to their viper keys. It runs
// per command so that commands sharing flag names do not overwrite each
// other's bindings.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func loopConfig(v *viper.Viper) (fairloop.LoopConfig, error) {
	cfg := fairloop.LoopConfig{
		Iterations:      v.GetInt(keyIterations),
		TargetGini:      v.GetFloat64(keyTargetGini),
		Alpha:           v.GetFloat64(keyAlpha),
		Beta:            v.GetFloat64(keyBeta),
		CreditsPerVoter: v.GetFloat64(keyCredits),
		Seed:            v.GetUint64(keySeed),
		SyntheticVoters: v.GetInt(keyVoters),
		SyntheticScale:  v.GetFloat64(keyScale),
	}
	if err := cfg.Validate(); err != nil {
		return fairloop.LoopConfig{}, err
	}
	return cfg, nil
}
