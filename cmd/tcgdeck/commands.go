package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/peterkuimelis/tcgdeck/internal/app"
	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/deck"
	"github.com/peterkuimelis/tcgdeck/internal/log"
	"github.com/peterkuimelis/tcgdeck/internal/query"
	"github.com/peterkuimelis/tcgdeck/internal/search"
)

// cli holds what the commands share; the session is opened in
// PersistentPreRunE.
type cli struct {
	configPath string
	quiet      bool
	app        *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "tcgdeck",
		Short:         "Build Pokémon TCG decks from the command line",
		Long:          "tcgdeck searches the Pokémon TCG catalog and edits a saved deck, with the four-copy rule enforced and deck lists in the common text format.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var events log.EventLogger = log.NewMemoryLogger()
			if !c.quiet {
				events = log.NewTextLogger(cmd.ErrOrStderr())
			}
			a, err := app.Open(cmd.Context(), c.configPath, events)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file (default $TCGDECK_CONFIG or ./tcgdeck.yaml)")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "do not print deck events")

	root.AddCommand(c.searchCmd(), c.deckCmd(), c.setsCmd())
	return root
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		f     query.Filters
		sort  string
		pages int
	)
	cmd := &cobra.Command{
		Use:   "search [name]",
		Short: "Search the card catalog",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := query.ParseSort(sort)
			if err != nil {
				return err
			}
			f.Sort = s

			b := c.app.Builder
			st, err := b.Search(cmd.Context(), strings.Join(args, " "), f)
			if err != nil && !errors.Is(err, search.ErrResultSetTooLarge) {
				return err
			}
			for i := 1; i < pages && st.HasMore; i++ {
				st = b.LoadMore()
			}
			printResults(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Format, "format", "", "legality: standard, expanded or unlimited")
	cmd.Flags().StringVar(&f.CardType, "type", "", "card type: Pokémon, Trainer or Energy")
	cmd.Flags().StringVar(&f.SubType, "subtype", "", "subtype, e.g. \"Stage 1\" or Supporter")
	cmd.Flags().StringVar(&f.PokemonType, "pokemon-type", "", "elemental type, e.g. Fire (Pokémon only)")
	cmd.Flags().StringVar(&sort, "sort", "", "result order: name-asc, name-desc or type")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of result pages to show")
	return cmd
}

func printResults(w io.Writer, st search.State) {
	if st.TooLarge {
		fmt.Fprintln(w, "Too many results, narrow the search.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSET\tNUMBER")
	for _, card := range st.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", card.ID, card.Name, card.Supertype, card.Set.Code, card.Number)
	}
	tw.Flush()
	fmt.Fprintf(w, "Showing %d of %d\n", len(st.Results), st.Total)
}

func (c *cli) deckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Show and edit the saved deck",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the deck grouped by section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printDeck(cmd.OutOrStdout(), c.app.Builder.Deck())
			return nil
		},
	}

	var count int
	add := &cobra.Command{
		Use:   "add <card-id>",
		Short: "Add copies of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i := 0; i < count; i++ {
				if _, err := c.app.Builder.Add(cmd.Context(), args[0]); err != nil {
					if errors.Is(err, catalog.ErrNotFound) {
						return fmt.Errorf("no card with id %q", args[0])
					}
					return err
				}
			}
			return nil
		},
	}
	add.Flags().IntVarP(&count, "count", "n", 1, "copies to add")

	remove := &cobra.Command{
		Use:   "remove <card-id>",
		Short: "Remove one copy of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.Builder.Deck().Count(args[0]) == 0 {
				return fmt.Errorf("card %q is not in the deck", args[0])
			}
			_, err := c.app.Builder.Remove(cmd.Context(), args[0])
			return err
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Builder.Clear(cmd.Context())
		},
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Print the deck as a deck list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := c.app.Builder.Export(cmd.Context()) + "\n"
			if output == "" || output == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), text)
				return err
			}
			return os.WriteFile(output, []byte(text), 0o644)
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	imp := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the deck with a deck list read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			res, err := c.app.Builder.Import(cmd.Context(), string(data))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d lines, %d cards\n", res.Resolved, res.Parsed, res.Deck.Total())
			return nil
		},
	}

	cmd.AddCommand(show, add, remove, clearCmd, export, imp)
	return cmd
}

func printDeck(w io.Writer, d deck.Deck) {
	sum := d.Summary()
	entries := d.Entries()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sec := range sum.Sections {
		fmt.Fprintf(tw, "%s (%d)\n", sec.Name, sec.Cards)
		for _, e := range entries {
			if deck.Section(e.Card).String() != sec.Name {
				continue
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s %s\t%s\n", e.Count, e.Card.Name, e.Card.Set.Code, e.Card.Number, e.Card.ID)
		}
	}
	tw.Flush()
	fmt.Fprintf(w, "Total: %d/%d\n", sum.Total, sum.Target)
}

func (c *cli) setsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List the catalog's sets and their codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.app.Builder.Sets(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tID\tNAME\tSERIES")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Code, s.ID, s.Name, s.Series)
			}
			return tw.Flush()
		},
	}
}
