package app

import (
	"encoding/base64"
	"fmt"

	"github.com/felixbrock/chartlint/internal/domain"
)

const (
	detectorPersona = "You are a chart detection agent."

	detectionPrompt = "Detect the type of chart represented by the input below. " +
		"Respond with only the chart type name (e.g., 'Line Plot', 'Bar Plot', 'Pie Chart', 'Scatter Plot', " +
		"'Histogram', 'Box Plot', 'Heatmap', 'Area Plot', 'Treemap', etc.) with no additional text."

	linterPersona = "You are a visualization linter designed to analyze various types of data visualizations " +
		"and detect issues based on a set of rules. Your task is to detect the type of plot from the uploaded " +
		"image or code, extract the necessary attributes from the plot, find appropriate thresholds for each rule " +
		"depending on the plot and data, and then apply the rules to identify any issues."

	dataInkFix = "After listing the detected issues, if any of the identified issues are related to the data-ink " +
		"principle (for example, excessive non-data ink such as redundant gridlines or decorative elements that do " +
		"not contribute to data clarity), then generate the corrected code for the same plot that fixes only those " +
		"data-ink principle related issues."
)

const methodology = `Steps:

Detect the type of plot from the uploaded image or code. The plot could be one of the following:

Line Plot
Bar Plot
Pie Chart
Scatter Plot
Histogram
Box Plot
Heatmap
Area Plot
Treemap

Extract the relevant attributes for the detected plot type. For each plot, extract the following attributes based on the associated rules:

Line Plot: axis scaling, number of lines, baseline, gridlines, time intervals, line styles/colors, missing data points, dual axis, readability
Bar Plot: axis scaling, bar widths, y-axis baseline, gridlines, category order, 3D bar usage, bar overlap, color choices, number of categories, dual axis, readability
Pie Chart: number of slices, slice colors, starting angle, slice sizes, labels/legends, exploding slices, readability
Scatter Plot: point overlap, axis scaling, y-axis baseline, labels/legends, gridlines, color/marker usage, outlier highlighting, data density, trend lines, dual axis, readability
Histogram: bin width, number of bins, y-axis baseline, gridlines, bin overlap, bin placement, normalization, axis scaling, readability
Box Plot: outliers, box size, axis labels, y-axis baseline, category count, IQR explanation, median/quartile lines, scale consistency, readability
Heatmap: color scheme, legend, number of variables, color saturation, normalization, aspect ratio, data labels, readability
Area Plot: overlapping areas, proportions, y-axis baseline, number of areas, category differentiation, color consistency, gradient usage, readability
Treemap: number of items, color scheme, hierarchy explanation, block size distribution, nesting levels, interactivity, readability

Find the appropriate thresholds for each rule based on the plot type and data. The thresholds will guide whether an issue exists. These thresholds should be based on common visualization best practices and may be context-dependent on the dataset. Examples of thresholds for different rules might include:

Line Plot:-
Scale or axis limits: The y-axis should generally start at zero, unless there's a clear reason for not doing so.
Number of lines: A plot with more than 5-7 lines may become overcrowded, making it difficult to distinguish between them.
Gridlines: Too many gridlines (e.g., more than 5 horizontal or vertical lines) can distract from the data.
Bar Plot:-
Bar widths: All bars in a bar chart should have consistent widths.
Y-axis baseline: The y-axis should start at zero, unless there's a valid reason for starting it at a higher value.
Overlapping bars: Bars should not overlap unless it is a stacked bar plot.
Category ordering: Categories should be ordered logically (e.g., by size, alphabetically, or chronologically).
Pie Chart:-
Number of slices: Pie charts should have no more than 5-7 slices.
Slice sizes: Each slice should accurately represent the proportion of the total, and there should be no visual distortion.
Labels/Legends: All slices should be labeled or there should be a clear legend.
Scatter Plot:-
Point overlap: If more than 20 percent of the points overlap, it may be necessary to reduce marker size or use transparency.
Axis scaling: Axes should use appropriate scaling to show the relationship between variables clearly.
Histogram:-
Bin width: Bins should have a consistent width or be chosen in a way that represents the data distribution clearly.
Number of bins: Too few bins (less than 5) can hide trends, and too many bins (more than 20) can create clutter.
Box Plot:-
Category count: A box plot with more than 10 categories might be too cluttered to interpret effectively.
Heatmap:-
Color scheme: Avoid color schemes that are hard to distinguish, such as red-green for colorblind users.
Aspect ratio: The heatmap should not be overly stretched or compressed, and the aspect ratio should reflect the number of rows and columns accurately.
Area Plot:-
Overlapping areas: Overlapping areas should be minimal, as they can obscure trends and make the plot harder to read.
Y-axis baseline: Like line plots, area plots should ideally start at zero to avoid exaggerating differences.
Treemap:-
Number of items: A treemap with more than 20 blocks may become too crowded to interpret effectively.
Block size consistency: Each block should accurately represent its data value, and inconsistencies in size may indicate a problem.

Once the thresholds are determined, apply the rules to identify any issues in the plot based on these thresholds. For each rule, check whether the plot violates any of the thresholds, and if so, report the detected issue.

`

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Part is one piece of message content: text, or an image as a data URL.
type Part struct {
	Text     string
	ImageUrl string
}

type Message struct {
	Role  Role
	Parts []Part
}

// Text joins the text parts of the message.
func (m Message) Text() string {
	var s string
	for _, p := range m.Parts {
		s += p.Text
	}
	return s
}

// Prompt is an encoded artifact, built once per submission and shared by
// both the classification and the critique request.
type Prompt struct {
	code     string
	imageUrl string
	image    *domain.Image
}

func NewPrompt(a domain.Artifact) Prompt {
	if a.IsImage() {
		return Prompt{
			imageUrl: fmt.Sprintf("data:%s;base64,%s", a.Image.MimeType, base64.StdEncoding.EncodeToString(a.Image.Data)),
			image:    a.Image,
		}
	}
	return Prompt{code: a.Code}
}

func (p Prompt) isImage() bool {
	return p.image != nil
}

// Image returns the raw image the prompt was built from, nil for code.
func (p Prompt) Image() *domain.Image {
	return p.image
}

func (p Prompt) content(text string) []Part {
	if p.isImage() {
		return []Part{{Text: text}, {ImageUrl: p.imageUrl}}
	}
	return []Part{{Text: fmt.Sprintf("%s\n\nChart Code:\n%s", text, p.code)}}
}

// Classification asks for the bare chart type name of the artifact.
func (p Prompt) Classification() []Message {
	return []Message{
		{Role: RoleSystem, Parts: []Part{{Text: detectorPersona}}},
		{Role: RoleUser, Parts: p.content(detectionPrompt)},
	}
}

// Critique asks for an issue list under the given rule text. Code artifacts
// also get the data-ink fix instruction; images cannot be rewritten.
func (p Prompt) Critique(rules string) []Message {
	parts := p.content(methodology + rules)
	if !p.isImage() {
		parts[0].Text += "\n\n" + dataInkFix
	}

	return []Message{
		{Role: RoleSystem, Parts: []Part{{Text: linterPersona}}},
		{Role: RoleUser, Parts: parts},
	}
}
