package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL    string
	sessionToken string
	rootCmd      = &cobra.Command{
		Use:   "sunodl",
		Short: "Suno downloader CLI - fetch and package your songs",
		Long:  `A command-line interface for managing Suno download jobs against a running server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&sessionToken, "token", "", "Session token")

	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(fetchCmd)
}

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List available pricing plans",
	Run: func(cmd *cobra.Command, args []string) {
		var result struct {
			Plans []map[string]interface{} `json:"plans"`
		}
		getJSON("/api/v1/plans", &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tNAME\tPRICE\tMAX SONGS")
		for _, p := range result.Plans {
			fmt.Fprintf(w, "%v\t%v\t$%v\t%v\n", p["type"], p["name"], p["price"], p["max_songs"])
		}
		w.Flush()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the session token",
	Run: func(cmd *cobra.Command, args []string) {
		requireToken()

		body := postJSON("/api/v1/sessions/validate", map[string]string{
			"session_token": sessionToken,
		}, http.StatusOK)

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		session, _ := result["session"].(map[string]interface{})
		fmt.Printf("Session valid\n")
		fmt.Printf("Plan: %v\n", session["plan_name"])
		fmt.Printf("Expires: %v\n", session["expires_at"])
		fmt.Printf("Songs used: %v\n", session["songs_used"])
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a download job",
	Run: func(cmd *cobra.Command, args []string) {
		requireToken()
		maxSongs, _ := cmd.Flags().GetInt("max-songs")
		debugURL, _ := cmd.Flags().GetString("debug-url")

		payload := map[string]interface{}{
			"session_token": sessionToken,
			"credentials": map[string]interface{}{
				"method": "chrome_debug",
				"data":   map[string]string{"debug_url": debugURL},
			},
		}
		if maxSongs > 0 {
			payload["max_songs"] = maxSongs
		}

		body := postJSON("/api/v1/jobs", payload, http.StatusCreated)

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		fmt.Printf("Job started\n")
		fmt.Printf("ID: %v\n", result["job_id"])
		fmt.Printf("Max songs: %v\n", result["max_songs"])
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the status of a job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var result struct {
			JobID    string                 `json:"job_id"`
			Status   string                 `json:"status"`
			Progress map[string]interface{} `json:"progress"`
		}
		getJSON("/api/v1/jobs/"+args[0], &result)

		fmt.Printf("Job: %s\n", result.JobID)
		fmt.Printf("Status: %s\n", result.Status)
		fmt.Printf("Downloaded: %v/%v (failed: %v)\n",
			result.Progress["downloaded"],
			result.Progress["total_songs"],
			result.Progress["failed"])
		if current, ok := result.Progress["current_song"].(string); ok && current != "" {
			fmt.Printf("Current: %s\n", current)
		}
		if msg, ok := result.Progress["error_message"].(string); ok && msg != "" {
			fmt.Printf("Last error: %s\n", msg)
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a running job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		postJSON("/api/v1/jobs/"+args[0]+"/cancel", nil, http.StatusOK)
		fmt.Println("Job cancelled")
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [job-id]",
	Short: "Download the archive of a completed job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = fmt.Sprintf("suno_songs_%s.zip", args[0])
		}

		resp, err := http.Get(serverURL + "/api/v1/jobs/" + args[0] + "/archive")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		f, err := os.Create(out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		n, err := io.Copy(f, resp.Body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s (%.2f MB)\n", out, float64(n)/(1024*1024))
	},
}

func init() {
	startCmd.Flags().Int("max-songs", 0, "Limit the number of songs for this job")
	startCmd.Flags().String("debug-url", "", "Chrome remote-debug URL override")
	fetchCmd.Flags().String("output", "", "Output file path")
}

func requireToken() {
	if sessionToken == "" {
		fmt.Fprintln(os.Stderr, "Error: --token is required")
		os.Exit(1)
	}
}

func getJSON(path string, out interface{}) {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}
	json.Unmarshal(body, out)
}

func postJSON(path string, payload interface{}, wantStatus int) []byte {
	data, _ := json.Marshal(payload)
	resp, err := http.Post(serverURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}
	return body
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
