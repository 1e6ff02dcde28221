package transform

// Named pipeline stages with their fixed completion percentages. Stages move
// strictly forward; reported percentages never decrease within one job.
const (
	StageQueued           = "queued"
	StagePreparing        = "preparing"
	StageGeneratingImage  = "generating-image"
	StageGeneratingFrames = "generating-frames"
	StageGeneratingEnd    = "generating-end-frame"
	StageGeneratingVideo  = "generating-video"
	StageProcessing       = "processing"
	StageDownloading      = "downloading"
	StageUploading        = "uploading"
	StageDone             = "done"
)

var stagePercent = map[string]int{
	StageQueued:           0,
	StagePreparing:        10,
	StageGeneratingImage:  25,
	StageGeneratingFrames: 25,
	StageGeneratingEnd:    25,
	StageGeneratingVideo:  45,
	StageProcessing:       60,
	StageDownloading:      80,
	StageUploading:        90,
	StageDone:             100,
}
