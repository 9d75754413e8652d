package blog

// DefaultTemplate is the built-in long-form post. It deliberately uses
// a wider placeholder vocabulary than Variables generates, so the
// second fill pass always has work to do.
const DefaultTemplate = `---
title: "The Ultimate Guide to {{PRIMARY_KEYWORD}} ({{CURRENT_DATE}})"
description: "Everything you need to choose the right {{SINGULAR_KEYWORD}}: types, buying factors, care tips, and answers to the most common questions."
date: {{ISO_DATE}}
publisher: "{{PUBLISHER}}"
slug: ultimate-guide-{{URL_FRIENDLY_KEYWORD}}
---

# The Ultimate Guide to {{PRIMARY_KEYWORD}}: Everything You Need to Know in {{CURRENT_DATE}}

![{{PRIMARY_KEYWORD}}]({{HERO_IMAGE_URL}})

*Published {{CURRENT_DATE}} by {{PUBLISHER}}*

In today's {{INDUSTRY_CONTEXT}}, finding the right {{SINGULAR_KEYWORD}} can make a real difference in your daily routine. Whether you need one for {{USE_CASE_1}}, {{USE_CASE_2}}, or {{USE_CASE_3}}, this guide walks through every type, every buying factor, and the questions buyers ask most.

## Table of Contents

1. [Why {{PRIMARY_KEYWORD}} Matter](#why-{{URL_FRIENDLY_KEYWORD}}-matter)
2. [Types of {{PRIMARY_KEYWORD}}](#types-of-{{URL_FRIENDLY_KEYWORD}})
3. [What to Look For: {{FACTOR_1}}, {{FACTOR_2}}, and More](#what-to-look-for)
4. [How the Leading Brands Compare](#how-the-leading-brands-compare)
5. [Getting the Most From Your {{SINGULAR_KEYWORD}}](#getting-the-most-from-your-{{URL_FRIENDLY_SINGULAR_KEYWORD}})
6. [Frequently Asked Questions](#frequently-asked-questions)

## Why {{PRIMARY_KEYWORD}} Matter

A quality {{SINGULAR_KEYWORD}} is more than an accessory. The right choice delivers {{BENEFIT_1}}, {{DETAIL_1}}. Made well, typically from {{MATERIAL_1}}, it will serve you for {{LIFESPAN_1}} of regular use.

The market has grown quickly, and buyers searching for {{PRIMARY_KEYWORD}} now compare options across dozens of brands. That makes it more important than ever to understand what separates a great {{SINGULAR_KEYWORD}} from a disappointing one.

## Types of {{PRIMARY_KEYWORD}}

### 1. {{TYPE_1}}

{{TYPE_1_DESCRIPTION}}. A standout option here offers {{UNIQUE_FEATURE_1}}.

### 2. {{TYPE_2}}

{{TYPE_2_DESCRIPTION}}. Look for models with {{FEATURE_2}} if you value {{QUALITY_1}}.

### 3. {{TYPE_3}}

{{TYPE_3_DESCRIPTION}}. These typically run {{PRICE_RANGE_1}}.

### 4. {{TYPE_4}}

{{TYPE_4_DESCRIPTION}}. Ideal for {{AUDIENCE_1}} who need {{USAGE_1}}.

## What to Look For

When comparing {{PRIMARY_KEYWORD}}, four factors matter most:

- **{{FACTOR_1}}**: The foundation of any good {{SINGULAR_KEYWORD}}. Prioritize {{MATERIAL_2}} construction over cheaper alternatives.
- **{{FACTOR_2}}**: A {{SINGULAR_KEYWORD}} that fails early costs more than one bought right. Expect {{LIFESPAN_2}} from a well-made unit.
- **{{FACTOR_3}}**: Consider {{ASPECT_1}} and {{ASPECT_2}} before committing.
- **{{FACTOR_4}}**: The best designs solve {{PROBLEM_1}} without adding bulk.

Prices range from {{LOW_PRICE}} to {{HIGH_PRICE}} {{CURRENCY}}, with most quality options in the {{PRICE_RANGE_2}} band.

## How the Leading Brands Compare

The current field for "{{PRIMARY_KEYWORD}}" is led by {{COMPETITOR_1}}, with {{COMPETITOR_2}} and {{COMPETITOR_3}} close behind. Each takes a different approach:

- **{{COMPETITOR_1}}** leads on selection and depth of information.
- **{{COMPETITOR_2}}** focuses on {{ASPECT_3}}, appealing to buyers who care about {{QUALITY_2}}.
- **{{COMPETITOR_3}}** competes on price without sacrificing {{QUALITY_3}}.

> "{{TESTIMONIAL_1}}" — {{REVIEWER_1}}, {{PROFESSION_1}}

Rated {{RATING}}/5 across {{REVIEW_COUNT}} verified reviews, the category favorite shows how much {{ASPECT_4}} matters to buyers.

## Getting the Most From Your {{SINGULAR_KEYWORD}}

### {{USAGE_ASPECT_1}}

Proper {{USAGE_ASPECT_1}} is the difference between a {{SINGULAR_KEYWORD}} that lasts and one that disappoints. {{TIP_1}} is the single most effective habit.

### {{USAGE_ASPECT_2}}

{{MAINTENANCE_1}} keeps your {{SINGULAR_KEYWORD}} performing like new. Pay particular attention to the {{COMPONENT_1}}, and pair it with a {{ACCESSORY_1}} for {{CONTEXT_1_DESCRIPTION}}.

### Where {{PRIMARY_KEYWORD}} Work Best

- **{{CONTEXT_1}}**: {{CONTEXT_1_DESCRIPTION}} demand reliability above all.
- **{{CONTEXT_2}}**: In {{CONTEXT_2_DESCRIPTION}}, {{ASPECT_1}} becomes the deciding factor.
- **{{CONTEXT_3}}**: {{CONTEXT_3_DESCRIPTION}} reward portable, rugged designs.

## Frequently Asked Questions

**What should I check for {{COMPATIBILITY_1}}?**
Measure {{SPEC_1}} before buying. Most {{PRIMARY_KEYWORD}} list supported dimensions prominently.

**How long does a quality {{SINGULAR_KEYWORD}} last?**
With {{MAINTENANCE_2}}, expect {{LIFESPAN_3}}.

**Are premium {{PRIMARY_KEYWORD}} worth the price?**
For {{AUDIENCE_2}}, yes. The jump in {{QUALITY_4}} justifies the cost for daily use.

**What do {{PRIMARY_KEYWORD}} cost?**
Entry-level options start around {{PRICE_1}}, while premium models reach {{HIGH_PRICE}} {{CURRENCY}}.

## The Bottom Line

The best {{SINGULAR_KEYWORD}} for you depends on how you will use it: {{USE_CASE_1}} calls for different strengths than {{USE_CASE_3}}. Focus on {{FACTOR_1}} and {{FACTOR_2}} first, then weigh {{ASPECT_1}} against your budget.

Browse our full collection at [{{COLLECTION_URL}}]({{COLLECTION_URL}}) and use code **{{DISCOUNT_CODE}}** for {{DISCOUNT_PERCENTAGE}} off your first order.

---

*{{PUBLISHER}} has covered the {{INDUSTRY}} space for over {{EXPERIENCE}} years. Related searches: {{RELATED_KEYWORD_1}}.*

<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Article",
  "headline": "The Ultimate Guide to {{PRIMARY_KEYWORD}}",
  "image": "{{HERO_IMAGE_URL}}",
  "datePublished": "{{ISO_DATE}}",
  "publisher": {
    "@type": "Organization",
    "name": "{{PUBLISHER}}",
    "logo": "{{LOGO_URL}}"
  },
  "aggregateRating": {
    "@type": "AggregateRating",
    "ratingValue": "{{RATING}}",
    "reviewCount": "{{REVIEW_COUNT}}"
  },
  "offers": {
    "@type": "AggregateOffer",
    "lowPrice": "{{LOW_PRICE}}",
    "highPrice": "{{HIGH_PRICE}}",
    "priceCurrency": "{{CURRENCY}}"
  }
}
</script>

<!-- Editorial targets derived from the current top results:
     words {{TARGET_WORD_COUNT}}+, internal links {{TARGET_INTERNAL_LINKS}}+,
     external links {{TARGET_EXTERNAL_LINKS}}+, images {{TARGET_IMAGES}}+. -->
`
