package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachequiz/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scenarios and grading over HTTP until interrupted.",
	Run: func(cmd *cobra.Command, _ []string) {
		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") {
			port = int(envInt(envPort, int64(port)))
		}

		s := server.NewServer().WithPortNumber(port)

		if recorder := recorderFromFlags(cmd.Flags()); recorder != nil {
			s = s.WithRecorder(recorder)
		}

		if verbose, _ := cmd.Flags().GetBool("trace"); verbose {
			s = s.WithLogger(log.New(os.Stderr, "", log.LstdFlags))
		}

		url := s.StartServer()

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := browser.OpenURL(url + "/api/scenarios"); err != nil {
				fmt.Fprintf(os.Stderr, "Cannot open a browser: %v\n", err)
			}
		}

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		<-interrupt
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0,
		"Port to listen on; 0 picks one (default from "+envPort+")")
	serveCmd.Flags().Bool("open", false, "Open the server in a browser")
	serveCmd.Flags().Bool("trace", false, "Log every access to stderr")
	serveCmd.Flags().String("record", "",
		"Record accesses into this SQLite database, without the .sqlite3 "+
			"suffix (default from "+envRecord+")")
}
