package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/aita/heapdb/db"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "heapdb",
	Short: "Inspect and scan heap files",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		log.SetLevel(level)
		db.SetLogger(log)
		return db.SetPageSize(viper.GetInt("page-size"))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.heapdb.yaml)")
	flags.String("catalog", "catalog.properties", "catalog file describing the tables")
	flags.Int("page-size", db.DefaultPageSize, "page size in bytes")
	flags.Int("cache-pages", db.DefaultCachePages, "maximum number of cached pages")
	flags.Duration("lock-timeout", db.DefaultLockTimeout, "how long to wait for a page lock")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	for _, name := range []string{"catalog", "page-size", "cache-pages", "lock-timeout", "log-level"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".heapdb")
	}

	viper.SetEnvPrefix("heapdb")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

// openCatalog loads the configured catalog and a buffer pool over it.
func openCatalog() (*db.Catalog, *db.BufferPool, error) {
	catalog := db.NewCatalog()
	if err := catalog.LoadSchema(viper.GetString("catalog")); err != nil {
		return nil, nil, err
	}
	pool := db.NewBufferPool(catalog, viper.GetInt("cache-pages"))
	pool.SetLockTimeout(viper.GetDuration("lock-timeout"))
	return catalog, pool, nil
}
