package events

// Step-group names used by workflow nodes. The stage mapping groups them
// into the coarse phases shown to clients.
const (
	GroupParsing   = "parsing"
	GroupTransform = "transforming"
	GroupImages    = "generating_images"
	GroupOutput    = "generating_output"
	GroupUpload    = "uploading"
)

// generation progress span: node progress is linear within [30,90]; the
// dispatcher reserves [0,30) for setup and (90,100] for upload/finish.
const (
	progressSpanStart = 30
	progressSpanEnd   = 90
)

// StageFor maps a node step group to the client-visible stage.
func StageFor(stepGroup string) Stage {
	switch stepGroup {
	case GroupParsing:
		return StageParsing
	case GroupTransform:
		return StageTransforming
	case GroupImages:
		return StageGeneratingImages
	case GroupOutput:
		return StageGeneratingOutput
	case GroupUpload:
		return StageUploading
	}
	return StageTransforming
}

// ProgressFor maps a 1-based step number out of totalSteps onto the linear
// generation span.
func ProgressFor(step, totalSteps int) int {
	if totalSteps <= 0 {
		return progressSpanStart
	}
	if step < 0 {
		step = 0
	}
	if step > totalSteps {
		step = totalSteps
	}
	span := progressSpanEnd - progressSpanStart
	return progressSpanStart + span*step/totalSteps
}
