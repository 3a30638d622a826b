// Package sample generates the six-layer demo lineage used by the seed
// command, the examples and the tests: twelve jobs that each write one
// dataset, plus an audit task for three of the layer-4 jobs.
package sample

import (
	"github.com/google/uuid"

	"github.com/matzehuels/stacklineage/pkg/lineage"
)

// Namespace is the namespace of every sample node.
const Namespace = "default"

// FinalReport is the ID of the last dataset in the chain, the usual focus.
const FinalReport = "dataset:default:final_business_intelligence_report"

var baseFields = []lineage.Field{
	{Name: "record_id", Type: "VARCHAR"},
	{Name: "timestamp", Type: "TIMESTAMP"},
	{Name: "data_value", Type: "DOUBLE"},
}

type step struct {
	output  string
	inputs  []string
	fields  []lineage.Field
	audited bool
}

func f(name, typ string) lineage.Field { return lineage.Field{Name: name, Type: typ} }

var steps = []step{
	{output: "source_data_ingestion", fields: []lineage.Field{f("source_system", "VARCHAR")}},
	{output: "raw_data_extraction", inputs: []string{"source_data_ingestion"}, fields: []lineage.Field{f("extraction_metadata", "JSON")}},
	{output: "metadata_collection", inputs: []string{"source_data_ingestion"}, fields: []lineage.Field{f("metadata_info", "JSON")}},
	{
		output: "cleaned_data_processing",
		inputs: []string{"raw_data_extraction", "metadata_collection"},
		fields: []lineage.Field{f("cleaned_flag", "BOOLEAN"), f("quality_score", "DOUBLE")},
	},
	{
		output: "validated_data_transformation",
		inputs: []string{"raw_data_extraction"},
		fields: []lineage.Field{f("validation_status", "VARCHAR"), f("transformation_rules", "JSON")},
	},
	{
		output:  "transformed_data_aggregation",
		inputs:  []string{"cleaned_data_processing"},
		fields:  []lineage.Field{f("aggregation_key", "VARCHAR"), f("aggregated_metrics", "JSON")},
		audited: true,
	},
	{
		output:  "quality_checked_data",
		inputs:  []string{"validated_data_transformation"},
		fields:  []lineage.Field{f("quality_metrics", "JSON"), f("check_results", "JSON")},
		audited: true,
	},
	{
		output:  "enriched_data_validation",
		inputs:  []string{"cleaned_data_processing", "quality_checked_data"},
		fields:  []lineage.Field{f("enrichment_data", "JSON"), f("validation_results", "JSON")},
		audited: true,
	},
	{
		output: "aggregated_metrics_calculation",
		inputs: []string{"transformed_data_aggregation"},
		fields: []lineage.Field{f("calculated_metrics", "JSON"), f("metric_dimensions", "JSON")},
	},
	{
		output: "validated_metrics_export",
		inputs: []string{"transformed_data_aggregation"},
		fields: []lineage.Field{f("validated_metrics", "JSON"), f("export_format", "VARCHAR")},
	},
	{
		output: "enriched_metrics_export",
		inputs: []string{"enriched_data_validation"},
		fields: []lineage.Field{f("enriched_metrics", "JSON"), f("additional_context", "JSON")},
	},
	{
		output: "final_business_intelligence_report",
		inputs: []string{"aggregated_metrics_calculation", "validated_metrics_export", "enriched_metrics_export"},
		fields: []lineage.Field{f("report_sections", "JSON"), f("business_insights", "JSON"), f("visualization_data", "JSON")},
	},
}

// JobID returns the node ID of a job in the sample namespace.
func JobID(name string) string { return "job:" + Namespace + ":" + name }

// DatasetID returns the node ID of a dataset in the sample namespace.
func DatasetID(name string) string { return "dataset:" + Namespace + ":" + name }

// ParentUUID derives the stable parentJobUuid of a task from its parent's
// node ID (a name-based SHA-1 UUID in the URL namespace).
func ParentUUID(parentJob string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(JobID(parentJob))).String()
}

// Graph builds the sample lineage. Each step adds its job, the job's input
// edges, its output dataset and, for audited steps, a task reading that
// dataset; the resulting node and edge order is stable.
func Graph() (*lineage.Graph, error) {
	b := lineage.NewBuilder()
	for _, s := range steps {
		job := "job_" + s.output
		if err := b.Job(JobID(job), lineage.Job{Name: job, Namespace: Namespace}); err != nil {
			return nil, err
		}
		for _, in := range s.inputs {
			if err := b.Edge(DatasetID(in), JobID(job)); err != nil {
				return nil, err
			}
		}

		fields := append(append([]lineage.Field{}, baseFields...), s.fields...)
		ds := lineage.Dataset{Name: s.output, Namespace: Namespace, Fields: fields}
		if err := b.Dataset(DatasetID(s.output), ds); err != nil {
			return nil, err
		}
		if err := b.Edge(JobID(job), DatasetID(s.output)); err != nil {
			return nil, err
		}

		if !s.audited {
			continue
		}
		task := job + ".audit"
		t := lineage.Job{Name: task, Namespace: Namespace, ParentJobName: job, ParentJobUUID: ParentUUID(job)}
		if err := b.Job(JobID(task), t); err != nil {
			return nil, err
		}
		if err := b.Edge(DatasetID(s.output), JobID(task)); err != nil {
			return nil, err
		}
	}
	return b.Graph(), nil
}
