// Package domain defines the job/page vocabulary and error kinds shared by
// every pipeline stage.
package domain

// Job lifecycle statuses.
const (
	JobCreated    = "created"
	JobProcessing = "processing"
	JobExtracted  = "extracted"
	JobPlanned    = "planned"
	JobRendered   = "rendered"
	JobPartial    = "partial"
	JobFailed     = "failed"
)

// Page statuses. Input pages only ever hold PageCompleted; handwritten pages
// move pending -> rendering -> rendered -> approved, with failed_system on
// exhausted system retries.
const (
	PagePending      = "pending"
	PageCompleted    = "completed"
	PagePlanned      = "planned"
	PageRendering    = "rendering"
	PageRendered     = "rendered"
	PageApproved     = "approved"
	PageFailedSystem = "failed_system"
)

// Page roles. PageTypeOutput and PageTypeHandwritten are aliases of the same
// "planned content awaiting rendering" role: the initial plan writes output
// pages, a replan writes handwritten pages, and replacement queries always
// cover both.
const (
	PageTypeInput       = "input"
	PageTypeOutput      = "output"
	PageTypeHandwritten = "handwritten"
)

// Input classifications.
const (
	InputTextPDF          = "text_pdf"
	InputScannedPDF       = "scanned_pdf"
	InputImageHandwritten = "image_handwritten"
)

// Processing pipelines implied by classification.
const (
	PipelinePDFFlow       = "pdf_flow"
	PipelineDirectRewrite = "direct_rewrite"
)

// Provenance tags recorded on extracted and planned pages.
const (
	SourcePDFText    = "pdf_text"
	SourceOCRPDFPage = "ocr_pdf_page"
	SourceOCRImage   = "ocr_image"
	SourcePlanner    = "vision_planner"
)

// PlannedRoles lists the page types replaced wholesale by a planner run.
var PlannedRoles = []string{PageTypeOutput, PageTypeHandwritten}
