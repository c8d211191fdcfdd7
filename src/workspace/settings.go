package workspace

// Provider ids understood by the llm registry.
const (
	ProviderGemini    = "gemini"
	ProviderLangChain = "langchain"
	ProviderLattice   = "lattice"
	ProviderFake      = "fake"
)

const (
	ModelFlash = "gemini-2.5-flash"
	ModelPro   = "gemini-2.5-pro"
)

// Models lists the model ids offered in the settings screen.
var Models = []string{ModelFlash, ModelPro}

// Providers lists the provider ids offered in the settings screen.
var Providers = []string{ProviderGemini, ProviderLangChain, ProviderLattice}

// Settings selects the generative service and how it is instructed.
type Settings struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemPrompt"`
}

func DefaultSettings() Settings {
	return Settings{
		Provider:     ProviderGemini,
		Model:        ModelFlash,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Normalize fills blank fields with their defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.Provider == "" {
		s.Provider = d.Provider
	}
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = d.SystemPrompt
	}
	return s
}

const DefaultSystemPrompt = "You are an expert AI software engineer working inside a project editor. You help users build and change small web applications.\n\n" +
	"**Output Format (Non-Negotiable):**\n" +
	"1.  **Files:** To create or change a file, wrap its full content in a `<file>` tag with a `path` attribute relative to the project root.\n" +
	"    *   Example: <file path=\"src/index.js\">console.log(\"Hello, World!\");</file>\n" +
	"    *   Always send the **complete file**. Never send a diff, a patch or placeholders like \"...\".\n" +
	"    *   Paths that do not exist yet are created. You may send several `<file>` tags in one response.\n" +
	"2.  **Chat:** To talk to the user, explain what you did or ask a question, wrap the text in a `<chat>` tag.\n" +
	"    *   Example: <chat>I created the project skeleton. What should we build next?</chat>\n" +
	"    *   You may send several `<chat>` tags in one response.\n" +
	"3.  Do not write anything outside these tags.\n\n" +
	"**How to Work:**\n" +
	"*   Read the request together with the project files and knowledge base you are given.\n" +
	"*   When asked to build an app, create the files it needs (for example index.html, style.css and script.js).\n" +
	"*   The preview loads index.html from the project root and inlines the stylesheets and scripts it references, so keep assets referenced by relative path."
