package manzai

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwiater/manzai/internal/character"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate character profiles against the schema",
	Long:  `Validate one or more character files. Without arguments the configured character is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			if GetConfig().CharacterPath == "" {
				return errNoCharacter
			}
			paths = []string{GetConfig().CharacterPath}
		}
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range paths {
			p, err := character.Load(path)
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "ok   %s: %s (%s, %s)\n", path, p.Name, p.Role, p.ModelTier)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d profiles are invalid", failed, len(paths))
		}
		return nil
	},
}

// newCmd writes a starter profile that passes validation.
var newCmd = &cobra.Command{
	Use:   "new <file>",
	Short: "Create a starter character profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		tier, _ := cmd.Flags().GetString("tier")

		p := character.Profile{
			Name:      name,
			Role:      character.Role(role),
			ModelTier: character.ParseTier(tier),
			Personality: character.Personality{
				Core:   "明るくて好奇心旺盛",
				Traits: []string{"天然", "前向き"},
			},
			SpeechStyle: character.SpeechStyle{
				Tone:            character.ToneCasual,
				SentenceEndings: []string{character.DefaultEnding},
				FirstPerson:     character.DefaultFirstPerson,
			},
		}
		if err := character.Validate(p); err != nil {
			return err
		}
		p = character.WithDefaults(p)
		if err := character.Save(path, p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", path, p.ID)
		return nil
	},
}

func init() {
	newCmd.Flags().String("name", "ユキ", "character name")
	newCmd.Flags().String("role", string(character.RoleBoke), "boke or tsukkomi")
	newCmd.Flags().String("tier", string(character.TierSmall), "small or large")
	newCmd.Flags().Bool("force", false, "overwrite an existing file")
	rootCmd.AddCommand(validateCmd, newCmd)
}
