package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonConvert      ReasonCode = "audio_convert"
	ReasonConvertInput ReasonCode = "audio_convert_input"

	ReasonTranscribe ReasonCode = "stt_transcribe"
	ReasonSTTInit    ReasonCode = "stt_init"
	ReasonSTTDecode  ReasonCode = "stt_decode"

	ReasonSummarize ReasonCode = "summary_generate"

	ReasonArtifactIO ReasonCode = "artifact_io"
)
