package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// agent command flags
	agName           string
	agDescription    string
	agConversationID string
	agUsePlanning    bool
	agConstraints    []string
	agOutputJSON     bool

	// evaluate command flags
	evQuery    string
	evResponse string
	evContext  []string
)

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentCreateCmd)
	agentCmd.AddCommand(agentListCmd)
	agentCmd.AddCommand(agentDeleteCmd)
	agentCmd.AddCommand(agentQueryCmd)
	agentCmd.AddCommand(agentEvaluateCmd)

	agentCmd.PersistentFlags().BoolVar(&agOutputJSON, "json", false, "Output results as JSON")

	agentCreateCmd.Flags().StringVar(&agName, "name", "", "Agent name (required)")
	agentCreateCmd.Flags().StringVar(&agDescription, "description", "", "Agent description")
	agentCreateCmd.Flags().StringVar(&agConversationID, "conversation-id", "", "Conversation identifier")
	_ = agentCreateCmd.MarkFlagRequired("name")

	agentQueryCmd.Flags().BoolVar(&agUsePlanning, "plan", false, "Decompose the query into a plan before executing")
	agentQueryCmd.Flags().StringSliceVar(&agConstraints, "constraint", nil, "Planning constraint (repeatable)")

	agentEvaluateCmd.Flags().StringVar(&evQuery, "query", "", "Original query (required)")
	agentEvaluateCmd.Flags().StringVar(&evResponse, "response", "", "Response to evaluate (required)")
	agentEvaluateCmd.Flags().StringSliceVar(&evContext, "context", nil, "Context chunk (repeatable)")
	_ = agentEvaluateCmd.MarkFlagRequired("query")
	_ = agentEvaluateCmd.MarkFlagRequired("response")
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agents",
	Long: `Manage agents and run queries through them.

Agents run queries through search, generation and self-assessment: the
response is scored against quality criteria and revised until it passes
or the iteration budget runs out.

Examples:
  # Create an agent
  ragctl agent create --name assistant

  # Run a query through an agent
  ragctl agent query <agent-id> "what is the capital of France?"

  # Plan a multi-step task first
  ragctl agent query <agent-id> --plan "summarize the three newest articles"

  # Evaluate an arbitrary response
  ragctl agent evaluate <agent-id> --query "q" --response "r" --context "c"`,
}

var agentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new agent",
	RunE:  runAgentCreate,
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	RunE:  runAgentList,
}

var agentDeleteCmd = &cobra.Command{
	Use:   "delete <agent-id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentDelete,
}

var agentQueryCmd = &cobra.Command{
	Use:   "query <agent-id> <query>",
	Short: "Run a query through an agent",
	Args:  cobra.ExactArgs(2),
	RunE:  runAgentQuery,
}

var agentEvaluateCmd = &cobra.Command{
	Use:   "evaluate <agent-id>",
	Short: "Evaluate a response against the quality criteria",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentEvaluate,
}

// AgentRequest matches internal/http/handlers.go AgentRequest
type AgentRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	ConversationID string `json:"conversation_id"`
}

// AgentInfo is the agent summary returned by the server.
type AgentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AgentQueryRequest matches internal/http/handlers.go AgentQueryRequest
type AgentQueryRequest struct {
	Query       string   `json:"query"`
	UsePlanning bool     `json:"use_planning,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// EvaluateRequest matches internal/http/handlers.go EvaluateRequest
type EvaluateRequest struct {
	Query    string   `json:"query"`
	Response string   `json:"response"`
	Context  []string `json:"context,omitempty"`
}

func runAgentCreate(cmd *cobra.Command, args []string) error {
	var agent AgentInfo
	err := apiPost("/api/v1/agents", AgentRequest{
		Name:           agName,
		Description:    agDescription,
		ConversationID: agConversationID,
	}, &agent)
	if err != nil {
		return err
	}

	if agOutputJSON {
		return printJSON(agent)
	}
	fmt.Printf("Agent ID: %s\n", agent.ID)
	return nil
}

func runAgentList(cmd *cobra.Command, args []string) error {
	var agents []AgentInfo
	if err := apiGet("/api/v1/agents", &agents); err != nil {
		return err
	}

	if agOutputJSON {
		return printJSON(agents)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, agent := range agents {
		fmt.Fprintf(w, "%s\t%s\t%s\n", agent.ID, agent.Name, agent.Description)
	}
	return w.Flush()
}

func runAgentDelete(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/api/v1/agents/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted agent %s\n", args[0])
	return nil
}

func runAgentQuery(cmd *cobra.Command, args []string) error {
	var outcome map[string]interface{}
	err := apiPost("/api/v1/agents/"+args[0]+"/query", AgentQueryRequest{
		Query:       args[1],
		UsePlanning: agUsePlanning,
		Constraints: agConstraints,
	}, &outcome)
	if err != nil {
		return err
	}

	if agOutputJSON {
		return printJSON(outcome)
	}

	if response, ok := outcome["response"].(string); ok {
		fmt.Println(response)
	} else {
		return printJSON(outcome["response"])
	}
	if improved, ok := outcome["improved"].(bool); ok && improved {
		fmt.Fprintf(os.Stderr, "[ragctl] Response was improved (%v iterations)\n", outcome["iterations"])
	}
	return nil
}

func runAgentEvaluate(cmd *cobra.Command, args []string) error {
	var result map[string]interface{}
	err := apiPost("/api/v1/agents/"+args[0]+"/evaluate", EvaluateRequest{
		Query:    evQuery,
		Response: evResponse,
		Context:  evContext,
	}, &result)
	if err != nil {
		return err
	}
	return printJSON(result)
}
