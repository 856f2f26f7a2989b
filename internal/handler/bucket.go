package handler

import (
	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

type bucketProps struct {
	BucketName        string            `mapstructure:"bucket_name"`
	Versioned         bool              `mapstructure:"versioned"`
	Encryption        string            `mapstructure:"encryption"`
	BlockPublicAccess *bool             `mapstructure:"block_public_access"`
	Tags              map[string]string `mapstructure:"tags"`
}

type bucketHandler struct{}

func init() {
	registry.Default.Register("bucket", bucketHandler{})
}

func (bucketHandler) Kind() string { return "bucket" }

func (bucketHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var p bucketProps
	errs := decodeErrors(c, &p, "Use bucket_name, versioned, encryption, block_public_access, tags")
	var warns []result.Warning
	if len(errs) == 0 {
		switch p.Encryption {
		case "", "AES256", "aws:kms":
		default:
			errs = append(errs, validationError("unsupported encryption: "+p.Encryption,
				"Set properties.encryption to AES256 or aws:kms"))
		}
		if p.BlockPublicAccess != nil && !*p.BlockPublicAccess {
			warns = append(warns, bestPractice("bucket allows public access",
				"Set properties.block_public_access to true unless the bucket hosts public content"))
		}
	}
	return append(errs, validateGrants(c)...), warns
}

func (bucketHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	var p bucketProps
	if err := c.Decode(&p); err != nil {
		return nil, err
	}
	w, err := wrapper.New(scope.Node, c.ID, BucketType)
	if err != nil {
		return nil, err
	}

	s := setter{w: w}
	if p.BucketName != "" {
		s.set("bucket_name", p.BucketName)
	}
	if p.Versioned {
		s.set("versioning_configuration.status", "Enabled")
	}
	if p.Encryption != "" {
		s.set("bucket_encryption.server_side_encryption_configuration", []any{
			property.BagOf("ServerSideEncryptionByDefault", property.BagOf("SSEAlgorithm", p.Encryption)),
		})
	}
	if p.BlockPublicAccess == nil || *p.BlockPublicAccess {
		s.set("public_access_block_configuration", property.BagOf(
			"BlockPublicAcls", true,
			"BlockPublicPolicy", true,
			"IgnorePublicAcls", true,
			"RestrictPublicBuckets", true,
		))
	}
	if len(p.Tags) > 0 {
		s.set("tags", tagList(p.Tags))
	}
	if s.err != nil {
		return nil, s.err
	}

	if err := configure(w.Resource(), c); err != nil {
		return nil, err
	}
	if err := grant(w, c); err != nil {
		return nil, err
	}
	return w.Node(), nil
}
