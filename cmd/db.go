package cmd

import (
	"fmt"
	"os"

	"github.com/aita/heapdb/db"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var convertCmd = &cobra.Command{
	Use:   "convert [text file] [heap file] [schema]",
	Short: "Convert comma separated rows into a heap file",
	Long: `Convert reads one row per line from the text file and writes the rows
as heap pages. The schema is a list like "id int, name string".`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		td, err := db.ParseTupleDesc(args[2])
		if err != nil {
			return err
		}
		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, in.Close())
		}()
		tuples, err := db.ParseRows(in, td)
		if err != nil {
			return err
		}
		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		n, err := db.EncodeTuples(out, td, tuples)
		err = multierr.Append(err, out.Close())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d tuples, %d pages\n", len(tuples), n)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [table]",
	Short: "Print every tuple of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		catalog, pool, err := openCatalog()
		if err != nil {
			return err
		}
		tableID, err := catalog.TableID(args[0])
		if err != nil {
			return err
		}
		alias, _ := cmd.Flags().GetString("alias")
		if alias == "" {
			alias = args[0]
		}
		txn := db.NewTransactionID()
		defer pool.TransactionComplete(txn)

		scan := db.NewAliasedSeqScan(catalog, pool, txn, tableID, alias)
		if header, _ := cmd.Flags().GetBool("header"); header {
			td, err := scan.TupleDesc()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), td)
		}
		if err := scan.Open(); err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, scan.Close())
		}()
		for {
			ok, err := scan.HasNext()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			t, err := scan.Next()
			if err != nil {
				return err
			}
			s, err := t.Render()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), s)
		}
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables of the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _, err := openCatalog()
		if err != nil {
			return err
		}
		for _, name := range catalog.TableNames() {
			id, err := catalog.TableID(name)
			if err != nil {
				return err
			}
			td, err := catalog.TupleDesc(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", name, id, td)
		}
		return nil
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages [heap file] [schema]",
	Short: "Show the slot usage of every page of a heap file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		td, err := db.ParseTupleDesc(args[1])
		if err != nil {
			return err
		}
		file := db.OpenHeapFile(args[0], td)
		n, err := file.NumPages()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "file %d: %d pages\n", file.ID(), n)
		for i := 0; i < n; i++ {
			page, err := file.ReadPage(db.PageID{FileID: file.ID(), PageNo: i})
			if err != nil {
				return err
			}
			hp := page.(*db.HeapPage)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d/%d slots used\n", i, hp.NumSlots()-hp.NumEmptySlots(), hp.NumSlots())
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().String("alias", "", "alias prefixed to field names (default is the table name)")
	scanCmd.Flags().Bool("header", false, "print the schema before the tuples")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(pagesCmd)
}
