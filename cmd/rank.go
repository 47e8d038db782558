package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-feed/internal/feed"
	"github.com/spigell/job-feed/internal/filtering"
	"github.com/spigell/job-feed/internal/jobboard"
	"github.com/spigell/job-feed/internal/jobs"
	jlog "github.com/spigell/job-feed/internal/logger"
	"github.com/spigell/job-feed/internal/ranking"
	"github.com/spigell/job-feed/internal/secrets"
)

const (
	PromptShowDetails         = "Show details"
	PromptReportByCompanies   = "Report by companies"
	PromptDumpToFile          = "Dump to file"
	PromptAppendToExcludeFile = "Append to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"

	// tokenEnv holds the board token itself; JOB_FEED_TOKEN_FILE points to a file with it.
	tokenEnv = "JOB_FEED_TOKEN"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowDetails, PromptReportByCompanies, PromptDumpToFile, PromptAppendToExcludeFile, PromptExit},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank jobs for the configured profile and print the feed",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().BoolP("yes", "y", false, "print the feed and exit without the interactive menu")
	rankCmd.Flags().Bool("allow-anonymous", false, "rank by recency only when no profile can be loaded")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")
	rankCmd.Flags().IntP("top", "n", 0, "show at most n jobs (0 shows all)")

	viper.BindPFlag("filter.exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("output.top", rankCmd.Flags().Lookup("top"))
}

// rank is the main command for the cli.
func rank(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := jlog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-feed", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	board, err := newBoardClient(config.Board, logger)
	if err != nil {
		logger.Fatal(
			"loading job board token",
			zap.Error(err),
			zap.String("hint", "set JOB_FEED_TOKEN or JOB_FEED_TOKEN_FILE environment variable or the 'board.token-file' key in the configuration file"),
		)
	}

	allowAnonymous, _ := cmd.Flags().GetBool("allow-anonymous")
	profile, err := loadProfile(ctx, config, board, allowAnonymous, logger)
	if err != nil {
		logger.Fatal("loading profile", zap.Error(err))
	}

	list, err := loadJobs(ctx, config, board)
	if err != nil {
		logger.Fatal("loading jobs", zap.Error(err))
	}

	logger.Info("getting jobs", zap.Int("count", list.Len()))

	if list.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs found"))
		return
	}

	list, err = prepareFilters(config.Filter, logger).RunFilters(ctx, list)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if list.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	scored, err := feed.New(logger).Rank(ctx, list, profile)
	if err != nil {
		logger.Fatal("ranking failed", zap.Error(err))
	}
	scored = feed.Trim(scored, config.Output.MinScore, config.Output.Top)

	printFeed(logger, scored)

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		scored, err = handleAction(action, logger, config, scored)
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func newBoardClient(config *BoardConfig, logger *zap.Logger) (*jobboard.Client, error) {
	if config == nil || strings.TrimSpace(config.URL) == "" {
		return nil, nil
	}

	// public boards need no token
	token := ""
	if strings.TrimSpace(config.TokenFile) != "" || strings.TrimSpace(os.Getenv(tokenEnv)) != "" {
		var err error
		token, err = secrets.Load(secrets.Source{
			Name: "job board token",
			File: config.TokenFile,
			Env:  tokenEnv,
		})
		if err != nil {
			return nil, err
		}
	}

	client := jobboard.New(logger, config.URL, token)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	if config.MaxRetries > 0 {
		client.MaxRetries = config.MaxRetries
	}

	return client, nil
}

// loadProfile tries the profile file first, then the board. With
// allowAnonymous any failure falls back to a nil profile.
func loadProfile(ctx context.Context, config *Config, board *jobboard.Client, allowAnonymous bool, logger *zap.Logger) (*jobs.Profile, error) {
	var (
		profile *jobs.Profile
		err     error
	)

	switch {
	case config.ProfileFile != "":
		profile, err = jobs.LoadProfileFile(config.ProfileFile)
	case board != nil && config.Board.ProfileID != "":
		profile, err = board.GetProfile(ctx, config.Board.ProfileID)
	default:
		err = errors.New("neither profile-file nor board.profile-id is configured")
	}

	if err == nil && profile == nil {
		err = errors.New("profile is empty")
	}

	if err != nil {
		if !allowAnonymous {
			return nil, err
		}
		logger.Warn("ranking without a profile", zap.Error(err))
		return nil, nil
	}

	logger.Info("profile loaded", jlog.ProfileFields(profile)...)
	return profile, nil
}

func loadJobs(ctx context.Context, config *Config, board *jobboard.Client) (*jobs.Jobs, error) {
	if config.JobsFile != "" {
		return jobs.LoadJobsFile(config.JobsFile)
	}

	if board != nil {
		return board.GetActiveJobs(ctx)
	}

	return nil, errors.New("neither jobs-file nor board.url is configured")
}

func prepareFilters(config *FilterConfig, logger *zap.Logger) *filtering.Filtering {
	steps := []filtering.Filter{
		filtering.NewStatus(config.Statuses, logger),
		filtering.NewExcludedEmployers(config.Employers),
		filtering.NewExcludeFile(config.ExcludeFile),
	}

	return filtering.New(steps, logger)
}

func printFeed(logger *zap.Logger, scored []ranking.ScoredJob) {
	for i, job := range scored {
		logger.Info(fmt.Sprintf("#%d", i+1),
			append(jlog.JobFields(&job.Job),
				zap.Int("match_score", job.MatchScore),
				zap.String("reasons", strings.Join(job.MatchReasons, ", ")),
			)...,
		)
	}

	logger.Info("current feed", zap.Int("count", len(scored)))
}

func handleAction(action string, logger *zap.Logger, config *Config, scored []ranking.ScoredJob) ([]ranking.ScoredJob, error) {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return scored, errExit
	case PromptShowDetails:
		return scored, showDetails(logger, scored)
	case PromptReportByCompanies:
		list := toJobs(scored)
		pretty, _ := json.MarshalIndent(list.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("jobs count", list.Len()))
		return scored, nil
	case PromptDumpToFile:
		filename, err := jobs.DumpToTmpFile(scored)
		if err != nil {
			return scored, fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return scored, nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(logger, config.Filter.ExcludeFile, scored)
	default:
		return scored, fmt.Errorf("invalid action: %s", action)
	}
}

func showDetails(logger *zap.Logger, scored []ranking.ScoredJob) error {
	for {
		items := make([]string, 0, len(scored)+1)
		for _, job := range scored {
			items = append(items, fmt.Sprintf("%s [%d] %s / %s / %s",
				job.ID, job.MatchScore, job.Title, job.Company, job.Location,
			))
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := jobPrompt.Run()
		if err != nil {
			return err
		}

		if selected == PromptBack {
			return nil
		}

		id := strings.Split(selected, " ")[0]
		job := findScored(scored, id)
		if job == nil {
			return fmt.Errorf("there is no such job id %s", id)
		}

		pretty, _ := json.MarshalIndent(job, "", "  ")
		logger.Info(string(pretty))
	}
}

// appendToExcludeFile stores every job of the feed in the exclude file and
// empties the feed.
func appendToExcludeFile(logger *zap.Logger, excludeFile string, scored []ranking.ScoredJob) ([]ranking.ScoredJob, error) {
	if excludeFile == "" {
		logger.Warn("exclude file is not configured", zap.String("hint", "set filter.exclude-file or pass --exclude-file"))
		return scored, nil
	}

	excluded, err := jobs.GetExcludedJobsFromFile(excludeFile)
	if err != nil {
		return scored, err
	}

	excluded.Append(toJobs(scored).ToExcluded())

	if err := excluded.ToFile(excludeFile); err != nil {
		return scored, err
	}

	logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", len(scored)))

	ids := make(map[string]struct{}, len(excluded.Items))
	for _, id := range excluded.JobIDs() {
		ids[id] = struct{}{}
	}

	left := make([]ranking.ScoredJob, 0, len(scored))
	for _, job := range scored {
		if _, ok := ids[job.ID]; !ok {
			left = append(left, job)
		}
	}

	return left, nil
}

func toJobs(scored []ranking.ScoredJob) *jobs.Jobs {
	list := &jobs.Jobs{Items: make([]*jobs.Job, 0, len(scored))}
	for i := range scored {
		list.Items = append(list.Items, &scored[i].Job)
	}
	return list
}

func findScored(scored []ranking.ScoredJob, id string) *ranking.ScoredJob {
	for i := range scored {
		if scored[i].ID == id {
			return &scored[i]
		}
	}
	return nil
}
