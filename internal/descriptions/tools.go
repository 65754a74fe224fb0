package descriptions

// Tool descriptions shown to MCP clients, with examples and workflows

const (
	// Administrator tools
	RequestCreateDescription = `Upload a PDF and open a signature request for it.

**When to use:** An administrator has a document that an external person needs to sign or fill in.

**Why it's useful:** Stores the original document, issues an unguessable share token and returns the link the signer opens. No signer account is needed.

**Examples:**
• Start an onboarding packet: "Create a request titled 'Intake Form' from intake.pdf"
• Send a contract for signature: "Upload lease.pdf and give me the signing link"

**Common workflows:**
1. Create request → signature_fields_save → share the link
2. Create request → signature_request_get to confirm page count before placing fields

**Best practices:** Send the PDF as base64 in file_base64. The request starts in draft and becomes pending once fields are saved.`

	FieldsSaveDescription = `Replace the complete set of fillable regions on a request.

**When to use:** Placing or moving signature boxes and short text fields on the document pages.

**Why it's useful:** The whole set is replaced in one step, so a read afterwards returns exactly what was saved. Regions are validated against the real page sizes of the uploaded PDF.

**Coordinates:** PDF points (1/72 inch) measured from the TOP-LEFT corner of the page, y growing downward. A US Letter page is 612 x 792 points.

**Field types:** "signature" for a signature box, "data_entry" for a single line of text. Any other value is treated as "signature".

**Examples:**
• "Put a signature box at x=72, y=600, 200x60 on page 2"
• "Add a data_entry field for the signer's full name on page 1"

**Best practices:** Send an empty list to clear the fields; the request goes back to draft. Completed requests cannot be changed.`

	RequestGetDescription = `Read one signature request with its fields and share link.

**When to use:** Checking status, page count or field placement of a request you created.`

	RequestListDescription = `List signature requests created by the calling administrator, newest first.

**When to use:** Finding a request id, or reviewing which requests are still pending. Set all=true to include requests created by other administrators.`

	SignatureListDescription = `List the signature records of a request, newest first.

**When to use:** Auditing who signed, when, from which network address, and which document each attempt produced.

**Why it's useful:** Every signing attempt is recorded and never modified, including attempts that were later replaced by a newer signature.`

	RequestDeleteDescription = `Delete a signature request with its fields, signature records and stored documents.

**When to use:** A request was created by mistake or its retention period has ended.

**Best practices:** Deletion cannot be undone. The share link stops working immediately.`

	// Signer tools
	SigningViewDescription = `Open a signature request with its public token.

**When to use:** The first step for a signer: see the document title, page count, status and the regions to fill.

**Why it's useful:** Returns only what the signer needs. Unknown and deleted tokens give the same "not found" answer.`

	SigningSignDescription = `Sign a request: burn the signature image and data entry values into the document.

**When to use:** The signer has drawn a signature and filled in the text fields.

**Inputs:**
• signature_image: a PNG/JPEG/GIF/BMP/WebP image as a data URL or base64 (required)
• data_entry_values: object mapping data_entry field ids to text
• signer_name, signer_email: optional, self-asserted

**Examples:**
• "Sign with this canvas export and name 'Jane Doe'"

**Common workflows:**
1. signing_view → signing_sign → signing_finalize
2. signing_sign → review the signed document → signing_sign again → signing_finalize

**Best practices:** Signing again before finalizing replaces the document that will be finalized; earlier attempts stay in the audit trail.`

	SigningFinalizeDescription = `Finalize the request with the most recent signature.

**When to use:** The signer is satisfied with the signed document.

**Best practices:** This is terminal. A second call, or signing after finalizing, is rejected.`

	SigningDocumentURLDescription = `Get the download link of the signed document.

**When to use:** After signing or finalizing. Before anything has been signed the URL is null.`
)
