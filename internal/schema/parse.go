package schema

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/gfxprobe/internal/ctxlog"
	"github.com/vk/gfxprobe/internal/fsutil"
	"github.com/vk/gfxprobe/internal/hal"
	"github.com/vk/gfxprobe/internal/scene"
)

// SceneExtension is the file extension of scene documents.
const SceneExtension = ".hcl"

// ParsePath loads the scene document at path. A single file is parsed as-is;
// a directory is walked recursively and all scene files are merged into one
// document. Names must be unique across the whole merged document.
func ParsePath(ctx context.Context, path string) (*scene.Document, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindSceneFiles(path, SceneExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to find scene files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s scene files found in %s", SceneExtension, path)
	}
	logger.Debug("Parsing scene files.", "path", path, "count", len(files))

	doc := &scene.Document{
		ResourceIndex: make(map[string]*scene.Resource),
		JobIndex:      make(map[string]*scene.Job),
	}
	parser := hclparse.NewParser()
	for _, file := range files {
		if err := parseFileInto(doc, parser, file); err != nil {
			return nil, err
		}
	}
	logger.Debug("Scene parsed.", "resources", len(doc.Resources), "jobs", len(doc.Jobs))
	return doc, nil
}

// ParseSource parses scene document text held in memory, for tests and
// embedded fixtures.
func ParseSource(filename string, src []byte) (*scene.Document, error) {
	doc := &scene.Document{
		ResourceIndex: make(map[string]*scene.Resource),
		JobIndex:      make(map[string]*scene.Job),
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}
	if err := decodeFileInto(doc, file); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseFileInto(doc *scene.Document, parser *hclparse.Parser, filePath string) error {
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return diagErr(diags)
	}
	return decodeFileInto(doc, file)
}

func decodeFileInto(doc *scene.Document, file *hcl.File) error {
	var parsed documentFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return diagErr(diags)
	}

	for _, block := range parsed.Resources {
		res, err := decodeResource(block)
		if err != nil {
			return err
		}
		if prev, ok := doc.ResourceIndex[res.Name]; ok {
			return malformedf(res.DeclRange, "duplicate resource name %q (previously declared at %s)", res.Name, prev.DeclRange)
		}
		doc.Resources = append(doc.Resources, res)
		doc.ResourceIndex[res.Name] = res
	}

	for _, block := range parsed.Jobs {
		job, err := decodeJob(block)
		if err != nil {
			return err
		}
		if prev, ok := doc.JobIndex[job.Name]; ok {
			return malformedf(job.DeclRange, "duplicate job name %q (previously declared at %s)", job.Name, prev.DeclRange)
		}
		doc.Jobs = append(doc.Jobs, job)
		doc.JobIndex[job.Name] = job
	}
	return nil
}

func decodeResource(block *resourceBlock) (*scene.Resource, error) {
	declRange := block.Body.MissingItemRange()
	res := &scene.Resource{
		Name:      block.Name,
		Kind:      scene.Kind(block.Kind),
		DeclRange: declRange,
	}

	var err error
	switch res.Kind {
	case scene.KindImage:
		res.Image, err = decodeImage(block)
	case scene.KindImageView:
		res.ImageView, err = decodeImageView(block)
	case scene.KindRenderPass:
		res.RenderPass, err = decodeRenderPass(block)
	case scene.KindFramebuffer:
		res.Framebuffer, err = decodeFramebuffer(block)
	case scene.KindBuffer:
		res.Buffer, err = decodeBuffer(block)
	default:
		return nil, malformedf(declRange, "unknown resource kind %q for %q", block.Kind, block.Name)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func decodeImage(block *resourceBlock) (*scene.Image, error) {
	var args imageArgs
	if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
		return nil, diagErr(diags)
	}
	declRange := block.Body.MissingItemRange()

	dimToken := args.Dimension
	if dimToken == "" {
		dimToken = "d2"
	}
	dim, err := parseDimension(dimToken)
	if err != nil {
		return nil, malformedf(declRange, "image %q: %v", block.Name, err)
	}
	format, err := parseFormat(args.Format)
	if err != nil {
		return nil, malformedf(declRange, "image %q: %v", block.Name, err)
	}
	usage, err := parseImageUsage(args.Usage)
	if err != nil {
		return nil, malformedf(declRange, "image %q: %v", block.Name, err)
	}

	return &scene.Image{
		Dimension: dim,
		Size: gputypes.Extent3D{
			Width:              args.Width,
			Height:             defaultOne(args.Height),
			DepthOrArrayLayers: defaultOne(args.Depth),
		},
		Levels: defaultOne(args.Levels),
		Format: format,
		Usage:  usage,
		Data:   args.Data,
	}, nil
}

func decodeImageView(block *resourceBlock) (*scene.ImageView, error) {
	var args imageViewArgs
	if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
		return nil, diagErr(diags)
	}
	declRange := block.Body.MissingItemRange()

	format, err := parseFormat(args.Format)
	if err != nil {
		return nil, malformedf(declRange, "image_view %q: %v", block.Name, err)
	}
	aspects, err := parseAspects(args.Aspects)
	if err != nil {
		return nil, malformedf(declRange, "image_view %q: %v", block.Name, err)
	}
	if aspects == 0 {
		aspects = defaultAspects(format)
	}

	// Zero counts mean "all remaining levels/layers"; the builder resolves
	// them against the owning image.
	return &scene.ImageView{
		Image:          args.Image,
		Format:         format,
		Aspects:        aspects,
		BaseMipLevel:   args.BaseMipLevel,
		MipLevelCount:  args.MipLevelCount,
		BaseArrayLayer: args.BaseArrayLayer,
		LayerCount:     args.LayerCount,
	}, nil
}

func decodeRenderPass(block *resourceBlock) (*scene.RenderPass, error) {
	var args renderPassArgs
	if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
		return nil, diagErr(diags)
	}
	declRange := block.Body.MissingItemRange()

	pass := &scene.RenderPass{}
	for _, att := range args.Attachments {
		if pass.AttachmentIndex(att.Name) >= 0 {
			return nil, malformedf(declRange, "render_pass %q: duplicate attachment %q", block.Name, att.Name)
		}
		format, err := parseFormat(att.Format)
		if err != nil {
			return nil, malformedf(declRange, "render_pass %q attachment %q: %v", block.Name, att.Name, err)
		}
		loadOp, err := parseLoadOp(att.LoadOp)
		if err != nil {
			return nil, malformedf(declRange, "render_pass %q attachment %q: %v", block.Name, att.Name, err)
		}
		storeOp, err := parseStoreOp(att.StoreOp)
		if err != nil {
			return nil, malformedf(declRange, "render_pass %q attachment %q: %v", block.Name, att.Name, err)
		}
		initial, err := parseLayout(att.InitialLayout)
		if err != nil {
			return nil, malformedf(declRange, "render_pass %q attachment %q: %v", block.Name, att.Name, err)
		}
		final, err := parseLayout(att.FinalLayout)
		if err != nil {
			return nil, malformedf(declRange, "render_pass %q attachment %q: %v", block.Name, att.Name, err)
		}
		pass.Attachments = append(pass.Attachments, scene.Attachment{
			Name:          att.Name,
			Format:        format,
			LoadOp:        loadOp,
			StoreOp:       storeOp,
			InitialLayout: initial,
			FinalLayout:   final,
		})
	}

	for _, sp := range args.Subpasses {
		if pass.SubpassIndex(sp.Name) >= 0 {
			return nil, malformedf(declRange, "render_pass %q: duplicate subpass %q", block.Name, sp.Name)
		}
		subpass := scene.Subpass{Name: sp.Name}
		for _, ref := range sp.Colors {
			layout, err := parseLayout(ref.Layout)
			if err != nil {
				return nil, malformedf(declRange, "render_pass %q subpass %q: %v", block.Name, sp.Name, err)
			}
			subpass.Colors = append(subpass.Colors, scene.AttachmentRef{
				Attachment: ref.Attachment,
				Layout:     layout,
			})
		}
		if sp.DepthStencil != nil {
			layout, err := parseLayout(sp.DepthStencil.Layout)
			if err != nil {
				return nil, malformedf(declRange, "render_pass %q subpass %q: %v", block.Name, sp.Name, err)
			}
			subpass.DepthStencil = &scene.AttachmentRef{
				Attachment: sp.DepthStencil.Attachment,
				Layout:     layout,
			}
		}
		pass.Subpasses = append(pass.Subpasses, subpass)
	}

	for _, dep := range args.Dependencies {
		pass.Dependencies = append(pass.Dependencies, scene.Dependency{From: dep.From, To: dep.To})
	}

	if len(pass.Subpasses) == 0 {
		return nil, malformedf(declRange, "render_pass %q declares no subpasses", block.Name)
	}
	return pass, nil
}

func decodeFramebuffer(block *resourceBlock) (*scene.Framebuffer, error) {
	var args framebufferArgs
	if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
		return nil, diagErr(diags)
	}
	return &scene.Framebuffer{
		Pass:        args.Pass,
		Attachments: args.Attachments,
		Extent: gputypes.Extent3D{
			Width:              args.Width,
			Height:             defaultOne(args.Height),
			DepthOrArrayLayers: defaultOne(args.Depth),
		},
	}, nil
}

func decodeBuffer(block *resourceBlock) (*scene.Buffer, error) {
	var args bufferArgs
	if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
		return nil, diagErr(diags)
	}
	usage, err := parseBufferUsage(args.Usage)
	if err != nil {
		return nil, malformedf(block.Body.MissingItemRange(), "buffer %q: %v", block.Name, err)
	}
	return &scene.Buffer{Size: args.Size, Usage: usage, Data: args.Data}, nil
}

func defaultOne(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

func defaultAspects(format gputypes.TextureFormat) hal.Aspect {
	if format == gputypes.TextureFormatDepth24PlusStencil8 {
		return hal.AspectDepth | hal.AspectStencil
	}
	return hal.AspectColor
}

func ctyColor(val cty.Value, rng hcl.Range, what string) (gputypes.Color, error) {
	if val.IsNull() || !val.CanIterateElements() || val.LengthInt() != 4 {
		return gputypes.Color{}, malformedf(rng, "%s must be a 4-element [r, g, b, a] tuple", what)
	}
	var channels [4]float64
	i := 0
	for it := val.ElementIterator(); it.Next(); i++ {
		_, elem := it.Element()
		if elem.Type() != cty.Number {
			return gputypes.Color{}, malformedf(rng, "%s element %d is not a number", what, i)
		}
		f, _ := elem.AsBigFloat().Float64()
		channels[i] = f
	}
	return gputypes.Color{R: channels[0], G: channels[1], B: channels[2], A: channels[3]}, nil
}

// evalClearValues evaluates a clear_values expression into an ordered color
// list, one entry per attachment.
func evalClearValues(expr hcl.Expression) ([]gputypes.Color, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}
	if val.IsNull() || !val.CanIterateElements() {
		return nil, malformedf(expr.Range(), "clear_values must be a list of [r, g, b, a] tuples")
	}
	var out []gputypes.Color
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		color, err := ctyColor(elem, expr.Range(), "clear value")
		if err != nil {
			return nil, err
		}
		out = append(out, color)
	}
	return out, nil
}
