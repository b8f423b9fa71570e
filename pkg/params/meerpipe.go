// SPDX-License-Identifier: MPL-2.0

package params

// Section titles of the meerpipe catalog.
const (
	SectionObservationSelection = "Observation selection"
	SectionInputOutput          = "Input/output options"
	SectionWorkflow             = "Workflow options"
	SectionDataportal           = "Meertime dataportal"
	SectionGeneric              = "Generic options"
)

// Names of parameters the launcher refers to directly.
const (
	ParamOutdir     = "outdir"
	ParamUpload     = "upload"
	ParamPsrdbURL   = "psrdb_url"
	ParamPsrdbToken = "psrdb_token"
)

var meerpipe = MustCatalog(
	Param{
		Name:        "pulsar",
		Type:        TypeString,
		Section:     SectionObservationSelection,
		Description: "Pulsar name for PSRDB search. Returns only observations with this pulsar name.",
	},
	Param{
		Name:        "utcs",
		Type:        TypeString,
		Description: "Start UTC for PSRDB search.  Returns only observations after this UTC timestamp.",
	},
	Param{
		Name:        "utce",
		Type:        TypeString,
		Description: "End UTC for PSRDB search. Returns only observations before this UTC timestamp.",
	},
	Param{
		Name:        "project",
		Type:        TypeString,
		Description: "Project short name (e.g. PTA) for PSRDB search. Return only observations matching this Project short code.",
	},
	Param{
		Name:        "obs_csv",
		Type:        TypeString,
		Description: "Path to CSV file containing the observations to process in the format described in the documentation",
	},
	Param{
		Name:        "input_dir",
		Type:        TypeString,
		Default:     String("/fred/oz005/timing"),
		Section:     SectionInputOutput,
		Description: "Base directory of input archive files",
	},
	Param{
		Name:        ParamOutdir,
		Type:        TypeDir,
		Description: "The output directory where the results will be saved. You have to use absolute paths to storage on Cloud infrastructure.",
	},
	Param{
		Name:        "ephemeris",
		Type:        TypeString,
		Description: "Path to the ephemris which will overwrite the default described above. Recommended to only be used for single observations.",
	},
	Param{
		Name:        "template",
		Type:        TypeString,
		Description: "Path to the template which will overwrite the default described above.  Recommended to only be used for single observations.",
	},
	Param{
		Name:        "email",
		Type:        TypeString,
		Description: "Email address for completion summary.",
	},
	Param{
		Name:        "use_prev_ar",
		Type:        TypeBool,
		Section:     SectionWorkflow,
		Description: "Use the previously created calibrated and cleaned archive in the output directory.",
	},
	Param{
		Name:        "use_edge_subints",
		Type:        TypeBool,
		Description: "Use first and last 8 second subints of observation archives.",
	},
	Param{
		Name:        "chop_edge",
		Type:        TypeBool,
		Default:     Bool(true),
		Description: "Remove edge frequency channels of the archive before decimating.",
	},
	Param{
		Name:        "use_mode_nsub",
		Type:        TypeBool,
		Default:     Bool(true),
		Description: "Additionally create decimations and ToAs with the mode nsub type (most common observation duration used for nsub length). Default True.",
	},
	Param{
		Name:        "use_all_nsub",
		Type:        TypeBool,
		Default:     Bool(true),
		Description: "Additionally create decimations with the all nsub type (use all available nsubs). Default True.",
	},
	Param{
		Name:        "use_max_nsub",
		Type:        TypeBool,
		Default:     Bool(true),
		Description: "Additionally create decimations and ToAs with the max nsub type (maximum number of nsubs with at least the 'toa_sn' signal-to-noise ratio). Default True.",
	},
	Param{
		Name:        "tos_sn",
		Type:        TypeInt,
		Default:     Int(12),
		Description: "Desired ToA S/N ratio, used to calculate the max nsub type to use",
	},
	Param{
		Name:        "nchans",
		Type:        TypeString,
		Default:     String("1,16,32,58,116,928"),
		Description: "Comma separated list of nchans to frequency scrunch the data into",
	},
	Param{
		Name:        "npols",
		Type:        TypeString,
		Default:     String("1,4"),
		Description: "Comma separated list of number of polarisations to scrunch the data into..",
	},
	Param{
		Name:        "max_nchan_upload",
		Type:        TypeInt,
		Default:     Int(32),
		Description: "Maximum number of channels of residuals to upload. Large number of channels slows down the upload and are often not required.",
	},
	Param{
		Name:        ParamUpload,
		Type:        TypeBool,
		Default:     Bool(true),
		Section:     SectionDataportal,
		Description: "Upload result to the database",
	},
	Param{
		Name:        ParamPsrdbURL,
		Type:        TypeString,
		Description: "URL for interacting with the database API. Can be set with the $PSRDB_URL environment variable.",
	},
	Param{
		Name:        ParamPsrdbToken,
		Type:        TypeString,
		Description: "Token taken from environment variable and obtained using get_ingest_token.sh or get_token.sh. Can be set with the $PSRDB_TOKEN environment variable.",
	},
	Param{
		Name:    "show_hidden_params",
		Type:    TypeBool,
		Section: SectionGeneric,
	},
)

// Meerpipe returns the nf-core/meerpipe parameter catalog.
// The returned catalog is shared and must be treated as read-only.
func Meerpipe() *Catalog { return meerpipe }
