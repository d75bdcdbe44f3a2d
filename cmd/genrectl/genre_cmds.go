package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/service"
)

// genreFlags are the editable genre fields shared by create and update.
type genreFlags struct {
	name        string
	subtitle    string
	genreType   string
	short       string
	long        string
	notes       string
	nsfw        bool
	parents     []string
	influences  []string
	akaPrimary  string
	akaSecond   string
	akaTertiary string
}

func (f *genreFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Genre name")
	fs.StringVar(&f.subtitle, "subtitle", "", "Disambiguating subtitle")
	fs.StringVar(&f.genreType, "type", string(domain.GenreTypeStyle), "Genre type (STYLE, META, TREND, SCENE, MOVEMENT)")
	fs.StringVar(&f.short, "short-description", "", "One-line description")
	fs.StringVar(&f.long, "long-description", "", "Full description")
	fs.StringVar(&f.notes, "notes", "", "Editor notes")
	fs.BoolVar(&f.nsfw, "nsfw", false, "Mark the genre not safe for work")
	fs.StringSliceVar(&f.parents, "parent", nil, "Parent genre id (repeatable)")
	fs.StringSliceVar(&f.influences, "influence", nil, "Influencing genre id (repeatable)")
	fs.StringVar(&f.akaPrimary, "aka-primary", "", "Comma-separated primary alternate names")
	fs.StringVar(&f.akaSecond, "aka-secondary", "", "Comma-separated secondary alternate names")
	fs.StringVar(&f.akaTertiary, "aka-tertiary", "", "Comma-separated tertiary alternate names")
}

func (f *genreFlags) akas() domain.GenreAkas {
	return domain.GenreAkas{
		Primary:   domain.ParseAkaList(f.akaPrimary),
		Secondary: domain.ParseAkaList(f.akaSecond),
		Tertiary:  domain.ParseAkaList(f.akaTertiary),
	}
}

// patch builds a sparse update from the flags the user actually set. An
// optional text flag set to "" clears the field.
func (f *genreFlags) patch(fs *pflag.FlagSet) domain.GenrePatch {
	var p domain.GenrePatch
	if fs.Changed("name") {
		p.Name = &f.name
	}
	p.Subtitle = nullableFlag(fs, "subtitle", f.subtitle)
	if fs.Changed("type") {
		t := domain.GenreType(strings.ToUpper(f.genreType))
		p.Type = &t
	}
	p.ShortDescription = nullableFlag(fs, "short-description", f.short)
	p.LongDescription = nullableFlag(fs, "long-description", f.long)
	p.Notes = nullableFlag(fs, "notes", f.notes)
	if fs.Changed("nsfw") {
		p.NSFW = &f.nsfw
	}
	if fs.Changed("parent") {
		p.Parents = &f.parents
	}
	if fs.Changed("influence") {
		p.Influences = &f.influences
	}

	var akas domain.GenreAkasPatch
	if fs.Changed("aka-primary") {
		tier := domain.ParseAkaList(f.akaPrimary)
		akas.Primary = &tier
	}
	if fs.Changed("aka-secondary") {
		tier := domain.ParseAkaList(f.akaSecond)
		akas.Secondary = &tier
	}
	if fs.Changed("aka-tertiary") {
		tier := domain.ParseAkaList(f.akaTertiary)
		akas.Tertiary = &tier
	}
	if akas != (domain.GenreAkasPatch{}) {
		p.AKAs = &akas
	}
	return p
}

func nullableFlag(fs *pflag.FlagSet, name, value string) domain.Nullable[string] {
	switch {
	case !fs.Changed(name):
		return domain.Nullable[string]{}
	case value == "":
		return domain.Null[string]()
	default:
		return domain.Set(value)
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		f         genreFlags
		id        string
		relevance int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}

			req := service.CreateGenreRequest{
				ID:               id,
				Name:             f.name,
				Subtitle:         f.subtitle,
				Type:             domain.GenreType(strings.ToUpper(f.genreType)),
				ShortDescription: f.short,
				LongDescription:  f.long,
				Notes:            f.notes,
				NSFW:             f.nsfw,
				Parents:          f.parents,
				Influences:       f.influences,
				AKAs:             f.akas(),
			}
			if cmd.Flags().Changed("relevance") {
				req.Relevance = &relevance
			}

			g, err := svc.CreateGenre(cmd.Context(), a.account, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, g)
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&id, "id", "", "Genre id (generated when empty)")
	cmd.Flags().IntVar(&relevance, "relevance", domain.RelevanceUnset, "Cast an initial relevance vote (0-7)")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		f         genreFlags
		patchFile string
	)
	cmd := &cobra.Command{
		Use:   "update <genre-id>",
		Short: "Update a genre",
		Long: `Update a genre. Only flags that are given change the genre; an empty
text flag clears the field. --patch reads a JSON patch instead, where
null clears a field and absent keys are kept ("-" reads stdin). --patch
cannot be combined with field flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}

			patch := f.patch(cmd.Flags())
			if patchFile != "" {
				if !patch.IsEmpty() {
					return errors.New("--patch cannot be combined with field flags")
				}
				if patch, err = a.readPatch(patchFile); err != nil {
					return err
				}
			}

			g, err := svc.UpdateGenre(cmd.Context(), a.account, args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd, g)
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&patchFile, "patch", "", "Read a JSON genre patch from a file")
	return cmd
}

func (a *app) readPatch(path string) (domain.GenrePatch, error) {
	var r io.Reader = a.stdin
	if path != "-" {
		file, err := os.Open(path) //#nosec G304 -- operator supplied patch file
		if err != nil {
			return domain.GenrePatch{}, err
		}
		defer file.Close()
		r = file
	}

	var patch domain.GenrePatch
	if err := json.NewDecoder(r).Decode(&patch); err != nil {
		return domain.GenrePatch{}, fmt.Errorf("decode patch: %w", err)
	}
	return patch, nil
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <genre-id>",
		Short: "Delete a genre, moving its children up to its parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.genres()
			if err != nil {
				return err
			}
			result, err := svc.DeleteGenre(cmd.Context(), a.account, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newVoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <genre-id> <relevance|unset>",
		Short: "Vote on a genre's relevance (0-7), or retract with \"unset\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			relevance, err := parseRelevance(args[1])
			if err != nil {
				return err
			}
			svc, err := a.genres()
			if err != nil {
				return err
			}
			g, err := svc.VoteGenreRelevance(cmd.Context(), a.account, args[0], relevance)
			if err != nil {
				return err
			}
			return printJSON(cmd, g)
		},
	}
}

func parseRelevance(s string) (int, error) {
	if strings.EqualFold(s, "unset") {
		return domain.RelevanceUnset, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("relevance must be a number or \"unset\": %q", s)
	}
	return v, nil
}
