package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errExit = errors.New("exit requested")

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("user", "u", "", "save the finished interview for this user id")
}

func runInterview(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc := newService(config, logger, nil)

	req, err := askGenerationRequest()
	if err != nil {
		logger.Fatal("reading interview settings", zap.Error(err))
	}

	logger.Info("generating questions",
		zap.String("role", req.Role),
		zap.String("type", string(req.Type)),
		zap.Int("count", req.QuestionCount),
	)

	questions, err := svc.GenerateQuestions(ctx, req)
	if err != nil {
		logger.Fatal("generating questions", zap.Error(err))
	}

	answers, err := askAnswers(questions)
	if err != nil {
		logger.Fatal("reading answers", zap.Error(err))
	}

	if err := confirm("Score the answers?"); err != nil {
		if errors.Is(err, errExit) {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
		logger.Fatal("exiting", zap.Error(err))
	}

	result, err := svc.GenerateFeedback(ctx, interview.FeedbackRequest{
		Role:      req.Role,
		Type:      req.Type,
		Questions: questions,
		Answers:   answers,
	})
	if err != nil {
		logger.Fatal("generating feedback", zap.Error(err))
	}

	fmt.Print(formatReport(result))

	userID := strings.TrimSpace(cmd.Flag("user").Value.String())
	if userID == "" {
		return
	}

	id, err := saveInterview(ctx, config.StoreDir, userID, req, questions, answers, result)
	if err != nil {
		logger.Fatal("saving the interview", zap.Error(err))
	}

	logger.Info("interview saved", zap.String("interview_id", id), zap.String("store_dir", config.StoreDir))
}

func askGenerationRequest() (interview.GenerationRequest, error) {
	items := make([]string, 0, len(interview.Types))
	for _, t := range interview.Types {
		items = append(items, string(t))
	}

	typePrompt := promptui.Select{
		Label: "Interview type",
		Items: items,
	}
	_, selected, err := typePrompt.Run()
	if err != nil {
		return interview.GenerationRequest{}, err
	}

	role, err := (&promptui.Prompt{Label: "Role", Validate: validateRequired}).Run()
	if err != nil {
		return interview.GenerationRequest{}, err
	}

	years, err := (&promptui.Prompt{Label: "Years of experience", Default: "1-3", Validate: validateRequired}).Run()
	if err != nil {
		return interview.GenerationRequest{}, err
	}

	count, err := (&promptui.Prompt{Label: "Number of questions", Default: "5", Validate: validateCount}).Run()
	if err != nil {
		return interview.GenerationRequest{}, err
	}

	n, _ := strconv.Atoi(strings.TrimSpace(count))

	return interview.GenerationRequest{
		Role:          strings.TrimSpace(role),
		Type:          interview.Type(selected),
		Years:         strings.TrimSpace(years),
		QuestionCount: n,
	}, nil
}

func askAnswers(questions interview.QuestionSet) ([]string, error) {
	answers := make([]string, 0, len(questions))
	for i, q := range questions {
		fmt.Printf("\n%d/%d. %s\n", i+1, len(questions), q)

		answer, err := (&promptui.Prompt{Label: "Answer", Validate: validateRequired}).Run()
		if err != nil {
			return nil, err
		}
		answers = append(answers, strings.TrimSpace(answer))
	}
	return answers, nil
}

func confirm(label string) error {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return err
	}
	if action == PromptNo {
		return errExit
	}
	return nil
}

func validateRequired(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

func validateCount(input string) error {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n <= 0 {
		return errors.New("must be a positive integer")
	}
	return nil
}

func formatReport(result *interview.FeedbackResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nOverall score: %.0f/100\n", result.OverallScore)
	for i, qf := range result.QuestionFeedback {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, qf.Question)
		fmt.Fprintf(&b, "   Score: %.0f/100\n", qf.Score)
		if qf.Feedback != "" {
			fmt.Fprintf(&b, "   Feedback: %s\n", qf.Feedback)
		}
		if qf.BetterAnswer != "" {
			fmt.Fprintf(&b, "   Better answer: %s\n", qf.BetterAnswer)
		}
	}
	if result.OverallFeedback != "" {
		fmt.Fprintf(&b, "\n%s\n", result.OverallFeedback)
	}

	return b.String()
}

func saveInterview(ctx context.Context, dir, userID string, req interview.GenerationRequest, questions interview.QuestionSet, answers []string, result *interview.FeedbackResult) (string, error) {
	fs, err := store.NewFileStore(dir)
	if err != nil {
		return "", err
	}

	iv := &store.Interview{
		UserID:    userID,
		Role:      req.Role,
		Type:      req.Type,
		Years:     req.Years,
		Questions: questions,
	}
	if err := fs.Create(ctx, iv); err != nil {
		return "", err
	}

	for i, answer := range answers {
		if _, err := fs.SaveAnswer(ctx, iv.ID, i, answer); err != nil {
			return "", err
		}
	}

	if _, err := fs.Complete(ctx, iv.ID, result); err != nil {
		return "", err
	}

	return iv.ID, nil
}
