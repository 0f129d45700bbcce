package locale

// Message ids. Every user-facing string goes through these constants so the
// completeness test can verify both languages cover them all.
const (
	// Registration
	RegWelcome      = "RegWelcome"
	RegPhonePrompt  = "RegPhonePrompt"
	RegShareButton  = "RegShareButton"
	RegInvalidPhone = "RegInvalidPhone"
	RegSuccess      = "RegSuccess"
	RegFailed       = "RegFailed"
	RegFailedRetry  = "RegFailedRetry"

	// Main menu buttons
	MenuAddRoute  = "MenuAddRoute"
	MenuProfile   = "MenuProfile"
	MenuTerminals = "MenuTerminals"
	MenuSupport   = "MenuSupport"
	MenuLanguage  = "MenuLanguage"

	// Route wizard
	RoutePromptTruck         = "RoutePromptTruck"
	RoutePromptStart         = "RoutePromptStart"
	RouteInvalidStart        = "RouteInvalidStart"
	RoutePromptTerminal      = "RoutePromptTerminal"
	RouteInvalidTerminal     = "RouteInvalidTerminal"
	RoutePromptContainerName = "RoutePromptContainerName"
	RoutePromptContainerSize = "RoutePromptContainerSize"
	RouteInvalidSize         = "RouteInvalidSize"
	RoutePromptContainerType = "RoutePromptContainerType"
	RouteInvalidType         = "RouteInvalidType"
	RoutePromptETA           = "RoutePromptETA"
	RouteInvalidETA          = "RouteInvalidETA"
	RouteSummary             = "RouteSummary"
	RouteConfirmButton       = "RouteConfirmButton"
	RouteCreating            = "RouteCreating"
	RouteCreated             = "RouteCreated"
	RouteCreateFailed        = "RouteCreateFailed"
	RouteCreateRejected      = "RouteCreateRejected"

	// Location freshness gates
	LocNotFound     = "LocNotFound"
	LocBadTimestamp = "LocBadTimestamp"
	LocStale        = "LocStale"
	LocNotLive      = "LocNotLive"

	// Live-location tracking
	LocStaticPin  = "LocStaticPin"
	LocSendFailed = "LocSendFailed"

	// Cancellation and expiry
	CancelNothing  = "CancelNothing"
	CancelDone     = "CancelDone"
	SessionExpired = "SessionExpired"

	// Profile
	ProfileFirstName   = "ProfileFirstName"
	ProfileLastName    = "ProfileLastName"
	ProfilePhone       = "ProfilePhone"
	ProfileTruck       = "ProfileTruck"
	ProfileLanguage    = "ProfileLanguage"
	ProfileFetchFailed = "ProfileFetchFailed"

	// Terminal browsing
	TerminalsChoose      = "TerminalsChoose"
	TerminalsNotFound    = "TerminalsNotFound"
	TerminalsDetailError = "TerminalsDetailError"
	TerminalsNoLocation  = "TerminalsNoLocation"
	TerminalsBtnLocation = "TerminalsBtnLocation"
	TerminalsBtnBack     = "TerminalsBtnBack"

	// Terminal detail field labels
	TerminalDetailAddress     = "TerminalDetailAddress"
	TerminalDetailLocation    = "TerminalDetailLocation"
	TerminalDetailCapacity    = "TerminalDetailCapacity"
	TerminalDetailWorkingDays = "TerminalDetailWorkingDays"
	TerminalDetailPhone       = "TerminalDetailPhone"
	TerminalDetailEmail       = "TerminalDetailEmail"

	// Support
	SupportAsk         = "SupportAsk"
	SupportReceived    = "SupportReceived"
	SupportNoActive    = "SupportNoActive"
	SupportFrom        = "SupportFrom"
	SupportQuestion    = "SupportQuestion"
	SupportReplyButton = "SupportReplyButton"
	SupportEnterReply  = "SupportEnterReply"
	SupportReplySent   = "SupportReplySent"
	SupportNewReply    = "SupportNewReply"
	BtnCancel          = "BtnCancel"

	// Language selection
	LanguageChoose = "LanguageChoose"
	LanguageSet    = "LanguageSet"

	// Misc
	HelpText    = "HelpText"
	RateLimited = "RateLimited"
)

// All lists every message id: the source of truth for completeness tests.
var All = []string{
	RegWelcome, RegPhonePrompt, RegShareButton, RegInvalidPhone, RegSuccess, RegFailed,
	RegFailedRetry,
	MenuAddRoute, MenuProfile, MenuTerminals, MenuSupport, MenuLanguage,
	RoutePromptTruck, RoutePromptStart, RouteInvalidStart,
	RoutePromptTerminal, RouteInvalidTerminal,
	RoutePromptContainerName, RoutePromptContainerSize, RouteInvalidSize,
	RoutePromptContainerType, RouteInvalidType,
	RoutePromptETA, RouteInvalidETA,
	RouteSummary, RouteConfirmButton, RouteCreating, RouteCreated,
	RouteCreateFailed, RouteCreateRejected,
	LocNotFound, LocBadTimestamp, LocStale, LocNotLive,
	LocStaticPin, LocSendFailed,
	CancelNothing, CancelDone, SessionExpired,
	ProfileFirstName, ProfileLastName, ProfilePhone, ProfileTruck, ProfileLanguage,
	ProfileFetchFailed,
	TerminalsChoose, TerminalsNotFound, TerminalsDetailError, TerminalsNoLocation,
	TerminalsBtnLocation, TerminalsBtnBack,
	TerminalDetailAddress, TerminalDetailLocation, TerminalDetailCapacity,
	TerminalDetailWorkingDays, TerminalDetailPhone, TerminalDetailEmail,
	SupportAsk, SupportReceived, SupportNoActive, SupportFrom, SupportQuestion,
	SupportReplyButton, SupportEnterReply, SupportReplySent, SupportNewReply, BtnCancel,
	LanguageChoose, LanguageSet,
	HelpText, RateLimited,
}
