package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/ops"
)

// personFlags registers the fields of a new individual under a prefix.
type personFlags struct {
	name     string
	gender   string
	affected bool
	remarks  string
}

func (f *personFlags) register(fs *pflag.FlagSet, prefix, gender string) {
	fs.StringVar(&f.name, prefix+"name", "", "name")
	fs.StringVar(&f.gender, prefix+"gender", gender, "gender: male, female, unknown")
	fs.BoolVar(&f.affected, prefix+"affected", false, "affected by the condition")
	fs.StringVar(&f.remarks, prefix+"remarks", "", "free-text remarks")
}

func (f *personFlags) person() *ops.Person {
	return &ops.Person{Name: f.name, Gender: f.gender, Affected: f.affected, Remarks: f.remarks}
}

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var (
		proband personFlags
		pattern string
		freq    float64
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a pedigree document with its proband",
		Long: `Create a pedigree document containing only the proband (III-1).

The inheritance pattern and carrier frequency default to the [pedigree]
section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer ws.Close()
			if ws.exists && !force {
				return errors.New(errors.ErrCodeInvalidOperation, "%s already exists (use --force to replace it)", ws.Name())
			}

			p, err := ws.cfg.NewPedigree()
			if err != nil {
				return err
			}
			if _, err := ws.session.Load(ctx, p); err != nil {
				return err
			}
			operations := []ops.Operation{{Kind: ops.AddProband, Params: ops.Params{Person: proband.person()}}}
			if cmd.Flags().Changed("pattern") {
				operations = append(operations, ops.Operation{Kind: ops.SetPattern, Params: ops.Params{Pattern: pattern}})
			}
			if cmd.Flags().Changed("frequency") {
				operations = append(operations, ops.Operation{Kind: ops.SetCarrierFrequency, Params: ops.Params{Frequency: &freq}})
			}
			if _, err := ws.session.Apply(ctx, operations...); err != nil {
				return err
			}
			if err := ws.Save(ctx); err != nil {
				return err
			}

			c.printSuccess("Created %s", ws.Name())
			c.printNextStep("Add the proband's parents", appName+" add parents III-1")
			return nil
		},
	}

	proband.register(cmd.Flags(), "", "unknown")
	cmd.Flags().StringVar(&pattern, "pattern", "", "inheritance pattern (default from config)")
	cmd.Flags().Float64Var(&freq, "frequency", 0, "population carrier frequency (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing document")

	return cmd
}

// addCommand creates the "add" command group.
func (c *CLI) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add relatives to an individual",
	}

	cmd.AddCommand(c.addParentsCommand())
	cmd.AddCommand(c.addSpouseCommand())
	cmd.AddCommand(c.addChildCommand(ops.AddChild, "child", "Add a child to a couple"))
	cmd.AddCommand(c.addChildCommand(ops.AddSibling, "sibling", "Add a sibling sharing the individual's parents"))
	cmd.AddCommand(c.addTwinsCommand())
	cmd.AddCommand(c.addPregnancyCommand())
	cmd.AddCommand(c.addLossCommand())

	return cmd
}

func (c *CLI) addParentsCommand() *cobra.Command {
	var (
		first, second personFlags
		marriage      string
	)
	cmd := &cobra.Command{
		Use:   "parents <id>",
		Short: "Add both parents of an individual",
		Long: `Add both parents of an individual as a married couple one generation up.

The second parent's gender is the opposite of the first.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{
				Kind:   ops.AddParents,
				Target: args[0],
				Params: ops.Params{First: first.person(), Second: second.person(), Marriage: marriage},
			})
		},
	}
	first.register(cmd.Flags(), "first-", "male")
	second.register(cmd.Flags(), "second-", "")
	cmd.Flags().StringVar(&marriage, "marriage", "", "married, divorced, separated, consanguinity")
	return cmd
}

func (c *CLI) addSpouseCommand() *cobra.Command {
	var (
		spouse   personFlags
		marriage string
	)
	cmd := &cobra.Command{
		Use:               "spouse <id>",
		Short:             "Add a spouse; existing children gain them as co-parent",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{
				Kind:   ops.AddSpouse,
				Target: args[0],
				Params: ops.Params{Person: spouse.person(), Marriage: marriage},
			})
		},
	}
	spouse.register(cmd.Flags(), "", "")
	cmd.Flags().StringVar(&marriage, "marriage", "", "married, divorced, separated, consanguinity")
	return cmd
}

// addChildCommand serves both "add child" and "add sibling".
func (c *CLI) addChildCommand(kind ops.Kind, use, short string) *cobra.Command {
	var (
		person   personFlags
		adoption string
	)
	cmd := &cobra.Command{
		Use:               use + " <id>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{
				Kind:   kind,
				Target: args[0],
				Params: ops.Params{Person: person.person(), Adoption: adoption},
			})
		},
	}
	person.register(cmd.Flags(), "", "unknown")
	cmd.Flags().StringVar(&adoption, "adoption", "", "adopted in or out: in, out")
	return cmd
}

func (c *CLI) addTwinsCommand() *cobra.Command {
	var (
		first, second personFlags
		twinType      string
	)
	cmd := &cobra.Command{
		Use:               "twins <id>",
		Short:             "Add a twin pair to a couple",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{
				Kind:   ops.AddTwins,
				Target: args[0],
				Params: ops.Params{First: first.person(), Second: second.person(), TwinType: twinType},
			})
		},
	}
	first.register(cmd.Flags(), "first-", "unknown")
	second.register(cmd.Flags(), "second-", "unknown")
	cmd.Flags().StringVar(&twinType, "type", "fraternal", "identical or fraternal")
	return cmd
}

func (c *CLI) addPregnancyCommand() *cobra.Command {
	var gender string
	cmd := &cobra.Command{
		Use:               "pregnancy <id>",
		Short:             "Add an ongoing pregnancy to an individual",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{Kind: ops.AddPregnancy, Target: args[0], Params: ops.Params{Gender: gender}})
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "unknown", "gender, if known")
	return cmd
}

func (c *CLI) addLossCommand() *cobra.Command {
	var termination bool
	cmd := &cobra.Command{
		Use:               "loss <id>",
		Short:             "Add a pregnancy loss to an individual",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{Kind: ops.AddPregnancyLoss, Target: args[0], Params: ops.Params{Termination: termination}})
		},
	}
	cmd.Flags().BoolVar(&termination, "termination", false, "record a termination instead of a spontaneous loss")
	return cmd
}

// noOffspringCommand creates the "no-offspring" command.
func (c *CLI) noOffspringCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "no-offspring <id> <no_offspring|infertility|none>",
		Short:     "Record why a couple has no children",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"no_offspring", "infertility", "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[1]
			if kind == "none" {
				kind = ""
			}
			return c.mutate(cmd, ops.Operation{Kind: ops.SetNoOffspring, Target: args[0], Params: ops.Params{NoOffspring: kind}})
		},
	}
}

// updateCommand creates the "update" command. Only flags given on the
// command line are changed.
func (c *CLI) updateCommand() *cobra.Command {
	var (
		strs  = map[string]*string{}
		bools = map[string]*bool{}
	)
	cmd := &cobra.Command{
		Use:               "update <id>",
		Short:             "Change an individual's details and phenotype",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := &ops.Patch{}
			set := func(name string, dst **string) {
				if cmd.Flags().Changed(name) {
					*dst = strs[name]
				}
			}
			setBool := func(name string, dst **bool) {
				if cmd.Flags().Changed(name) {
					*dst = bools[name]
				}
			}
			set("name", &patch.Name)
			set("gender", &patch.Gender)
			set("test", &patch.TestResult)
			set("adoption", &patch.Adoption)
			set("age", &patch.Age)
			set("birth-year", &patch.BirthYear)
			set("death-year", &patch.DeathYear)
			set("death-age", &patch.DeathAge)
			set("conditions", &patch.Conditions)
			set("remarks", &patch.Remarks)
			setBool("affected", &patch.Affected)
			setBool("carrier", &patch.Carrier)
			setBool("deceased", &patch.Deceased)
			setBool("locked", &patch.Locked)
			if *patch == (ops.Patch{}) {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to update")
			}
			return c.mutate(cmd, ops.Operation{Kind: ops.UpdateIndividual, Target: args[0], Params: ops.Params{Patch: patch}})
		},
	}

	for _, f := range []struct{ name, usage string }{
		{"name", "name"},
		{"gender", "male, female, unknown"},
		{"test", "genetic test result: none, positive, negative, carrier"},
		{"adoption", "adoption: in, out, or empty to clear"},
		{"age", "age"},
		{"birth-year", "year of birth"},
		{"death-year", "year of death"},
		{"death-age", "age at death"},
		{"conditions", "medical conditions"},
		{"remarks", "free-text remarks"},
	} {
		strs[f.name] = cmd.Flags().String(f.name, "", f.usage)
	}
	for _, f := range []struct{ name, usage string }{
		{"affected", "affected by the condition"},
		{"carrier", "known carrier"},
		{"deceased", "deceased"},
		{"locked", "keep the individual's position fixed"},
	} {
		bools[f.name] = cmd.Flags().Bool(f.name, false, f.usage)
	}
	return cmd
}

// probandCommand creates the "proband" command.
func (c *CLI) probandCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "proband <id>",
		Short:             "Make an individual the proband",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{Kind: ops.SetProband, Target: args[0]})
		},
	}
}

// deleteCommand creates the "delete" command.
func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete individuals together with their spouses",
		Long: `Delete individuals. Spouses are deleted with them and every reference
to a deleted individual is removed. The proband cannot be deleted.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			op := ops.Operation{Kind: ops.Delete, Target: args[0]}
			if len(args) > 1 {
				op = ops.Operation{Kind: ops.Delete, Targets: args}
			}
			return c.mutate(cmd, op)
		},
	}
}

// setCommand creates the "set" command group for pedigree settings.
func (c *CLI) setCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change pedigree settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "pattern <pattern>",
		Short:     "Set the inheritance pattern",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"autosomal_dominant", "autosomal_recessive", "x_linked_recessive", "x_linked_dominant"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{Kind: ops.SetPattern, Params: ops.Params{Pattern: args[0]}})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "frequency <f>",
		Short: "Set the population carrier frequency, between 0 and 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "carrier frequency %q", args[0])
			}
			return c.mutate(cmd, ops.Operation{Kind: ops.SetCarrierFrequency, Params: ops.Params{Frequency: &f}})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "marriage <id> <status>",
		Short:     "Set the marriage status of a couple",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"married", "divorced", "separated", "consanguinity"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd, ops.Operation{Kind: ops.SetMarriageStatus, Target: args[0], Params: ops.Params{Marriage: args[1]}})
		},
	})

	return cmd
}

// applyCommand creates the "apply" command.
func (c *CLI) applyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <ops.json>",
		Short: "Apply a JSON batch of operations atomically",
		Long: `Apply a JSON operation object, or an array of them, read from a file
or from stdin ("-"). Either every operation succeeds or the document is left
unchanged.

Example:

  [
    {"kind": "add_parents", "target": "III-1"},
    {"kind": "update_individual", "target": "II-1", "params": {"patch": {"affected": true}}}
  ]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "open operations")
				}
				defer f.Close()
				in = f
			}
			operations, err := ops.Decode(in)
			if err != nil {
				return err
			}
			return c.mutate(cmd, operations...)
		},
	}
}
