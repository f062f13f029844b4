package models

// SubmitKey is the key binding that sends a chat message.
type SubmitKey string

const (
	SubmitKeyEnter      SubmitKey = "Enter"
	SubmitKeyCtrlEnter  SubmitKey = "Ctrl + Enter"
	SubmitKeyShiftEnter SubmitKey = "Shift + Enter"
	SubmitKeyAltEnter   SubmitKey = "Alt + Enter"
	SubmitKeyMetaEnter  SubmitKey = "Meta + Enter"
)

// Valid reports whether k is one of the known key bindings.
func (k SubmitKey) Valid() bool {
	switch k {
	case SubmitKeyEnter, SubmitKeyCtrlEnter, SubmitKeyShiftEnter, SubmitKeyAltEnter, SubmitKeyMetaEnter:
		return true
	}
	return false
}

type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func (t Theme) Valid() bool {
	return t == ThemeAuto || t == ThemeDark || t == ThemeLight
}

// AppConfig is the single settings record of the chat client.
// JSON names are the persisted names; renaming one breaks stored records.
type AppConfig struct {
	LastUpdate int64 `json:"lastUpdate"` // unix millis, used to pick the newer copy on merge

	SubmitKey         SubmitKey `json:"submitKey"`
	Avatar            string    `json:"avatar"`
	FontSize          float64   `json:"fontSize"`
	Theme             Theme     `json:"theme"`
	TightBorder       bool      `json:"tightBorder"`
	SendPreviewBubble bool      `json:"sendPreviewBubble"`
	SidebarWidth      float64   `json:"sidebarWidth"`

	DisablePromptHint bool `json:"disablePromptHint"`

	DontShowMaskSplashScreen bool `json:"dontShowMaskSplashScreen"`
	HideBuiltinMasks         bool `json:"hideBuiltinMasks"`

	ProviderConfig   ProviderConfig `json:"providerConfig"`
	GlobalMaskConfig MaskConfig     `json:"globalMaskConfig"`
}

// MaskConfig is the default preset applied to new chat sessions.
type MaskConfig struct {
	Provider    LLMProvider `json:"provider"`
	ChatConfig  ChatConfig  `json:"chatConfig"`
	ModelConfig ModelConfig `json:"modelConfig"`
}

type ChatConfig struct {
	EnableAutoGenerateTitle        bool   `json:"enableAutoGenerateTitle"`
	SendMemory                     bool   `json:"sendMemory"`
	HistoryMessageCount            int    `json:"historyMessageCount"`
	CompressMessageLengthThreshold int    `json:"compressMessageLengthThreshold"`
	EnableInjectSystemPrompts      bool   `json:"enableInjectSystemPrompts"`
	Template                       string `json:"template"`
}
